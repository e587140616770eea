package patient

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinlog/clinlog/pkg/httpjson"
	"github.com/clinlog/clinlog/pkg/pg"
	"github.com/clinlog/clinlog/pkg/tenant"
	"github.com/clinlog/clinlog/pkg/tenantdb"
)

// Handler exposes patient CRUD. It is mounted inside the authenticated,
// tenant-scoped route group; by the time a request arrives here the ambient
// tenant is already bound.
type Handler struct {
	store *Store
}

// NewHandler creates the patient HTTP handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Routes mounts the patient endpoints. A non-nil tasklogs router is nested
// under /{patientID}/tasklogs so entries are always addressed through their
// parent patient.
func (h *Handler) Routes(tasklogs chi.Router) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Route("/{patientID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		if tasklogs != nil {
			r.Mount("/tasklogs", tasklogs)
		}
	})
	return r
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var params CreateParams
	if err := httpjson.Decode(r, &params); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if params.MRN == "" || params.FullName == "" {
		httpjson.Error(w, http.StatusBadRequest, "mrn and full_name are required")
		return
	}

	p, err := h.store.Create(r.Context(), params)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			httpjson.Error(w, http.StatusConflict, "patient with this mrn already exists")
			return
		}
		writeStorageError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, p)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	patients, err := h.store.List(r.Context())
	if err != nil {
		writeStorageError(w, err)
		return
	}
	if patients == nil {
		patients = []Patient{}
	}
	httpjson.Write(w, http.StatusOK, patients)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "patient not found")
		return
	}

	p, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "patient not found")
		return
	}

	var params UpdateParams
	if err := httpjson.Decode(r, &params); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if params.FullName == "" {
		httpjson.Error(w, http.StatusBadRequest, "full_name is required")
		return
	}

	p, err := h.store.Update(r.Context(), id, params)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "patient not found")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeStorageError maps storage failures to responses. Cross-tenant rows
// already surface as not-found from the store, so nothing here can leak the
// existence of foreign data.
func writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenantdb.ErrNotFound):
		httpjson.Error(w, http.StatusNotFound, "patient not found")
	case errors.Is(err, tenant.ErrNoTenantContext):
		httpjson.Error(w, http.StatusInternalServerError, "internal server error")
	case errors.Is(err, tenantdb.ErrUnavailable):
		httpjson.Error(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		httpjson.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
