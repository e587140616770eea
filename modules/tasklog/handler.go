package tasklog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinlog/clinlog/pkg/authn"
	"github.com/clinlog/clinlog/pkg/httpjson"
	"github.com/clinlog/clinlog/pkg/tenant"
	"github.com/clinlog/clinlog/pkg/tenantdb"
)

// Handler exposes task-log endpoints nested under a patient route. Mounted
// inside the authenticated, tenant-scoped route group.
type Handler struct {
	store *Store
}

// NewHandler creates the task-log HTTP handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Routes mounts the task-log endpoints; the parent router provides the
// patientID parameter.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Route("/{entryID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.delete)
	})
	return r
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "patient not found")
		return
	}

	principal, ok := authn.PrincipalFromContext(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var params CreateParams
	if err := httpjson.Decode(r, &params); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if params.Kind == "" {
		httpjson.Error(w, http.StatusBadRequest, "kind is required")
		return
	}

	e, err := h.store.Create(r.Context(), patientID, principal.UserID, params)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, e)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "patient not found")
		return
	}

	entries, err := h.store.ListByPatient(r.Context(), patientID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httpjson.Write(w, http.StatusOK, entries)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "patient not found")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "entryID"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "task log not found")
		return
	}

	e, err := h.store.Get(r.Context(), patientID, id)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, e)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "patient not found")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "entryID"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "task log not found")
		return
	}

	if err := h.store.Delete(r.Context(), patientID, id); err != nil {
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenantdb.ErrNotFound):
		httpjson.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, tenant.ErrNoTenantContext):
		httpjson.Error(w, http.StatusInternalServerError, "internal server error")
	case errors.Is(err, tenantdb.ErrUnavailable):
		httpjson.Error(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		httpjson.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
