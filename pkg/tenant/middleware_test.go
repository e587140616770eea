package tenant_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinlog/clinlog/pkg/authn"
	"github.com/clinlog/clinlog/pkg/tenant"
)

// ambientRecorder responds 200 and captures the tenant bound to the request.
type ambientRecorder struct {
	tenantID uuid.UUID
	err      error
	called   bool
}

func (h *ambientRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.tenantID, h.err = tenant.CurrentID(r.Context())
	w.WriteHeader(http.StatusOK)
}

func doRequest(t *testing.T, mw func(http.Handler) http.Handler, p *authn.Principal, header string) (*httptest.ResponseRecorder, *ambientRecorder) {
	t.Helper()

	rec := &ambientRecorder{}
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	if p != nil {
		req = req.WithContext(authn.WithPrincipal(req.Context(), p))
	}
	if header != "" {
		req.Header.Set(tenant.DefaultHeaderName, header)
	}

	w := httptest.NewRecorder()
	mw(rec).ServeHTTP(w, req)
	return w, rec
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	stMary := newTestTenant("st-mary", true)
	northside := newTestTenant("northside", true)
	resolver := tenant.NewResolver(newMockDirectory(stMary, northside))
	mw := tenant.Middleware(resolver)

	t.Run("binds home tenant", func(t *testing.T) {
		t.Parallel()

		p := principalWithHome(authn.RoleClinician, stMary.ID)
		w, rec := doRequest(t, mw, p, "")

		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, rec.err)
		assert.Equal(t, stMary.ID, rec.tenantID)
	})

	t.Run("clinician header is ignored", func(t *testing.T) {
		t.Parallel()

		p := principalWithHome(authn.RoleClinician, stMary.ID)
		w, rec := doRequest(t, mw, p, northside.Code)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, stMary.ID, rec.tenantID)
	})

	t.Run("super admin override", func(t *testing.T) {
		t.Parallel()

		p := principalWithHome(authn.RoleSuperAdmin, stMary.ID)
		w, rec := doRequest(t, mw, p, northside.Code)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, northside.ID, rec.tenantID)
	})

	t.Run("missing principal is an internal error", func(t *testing.T) {
		t.Parallel()

		w, rec := doRequest(t, mw, nil, "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.False(t, rec.called)
	})

	t.Run("unresolvable tenant", func(t *testing.T) {
		t.Parallel()

		p := &authn.Principal{UserID: uuid.New(), Role: authn.RoleSuperAdmin}
		w, rec := doRequest(t, mw, p, "no-such-hospital")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, rec.called)
	})

	t.Run("no signal at all", func(t *testing.T) {
		t.Parallel()

		p := &authn.Principal{UserID: uuid.New(), Role: authn.RoleSuperAdmin}
		w, rec := doRequest(t, mw, p, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, rec.called)
	})

	t.Run("cross-tenant access is forbidden", func(t *testing.T) {
		t.Parallel()

		// A clinician without a home tenant can name a real hospital but has
		// no membership in it.
		p := &authn.Principal{UserID: uuid.New(), Role: authn.RoleClinician}
		w, rec := doRequest(t, mw, p, northside.Code)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, rec.called)
	})
}

func TestMiddleware_SkipPaths(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewResolver(newMockDirectory())
	mw := tenant.Middleware(resolver, tenant.WithSkipPaths("/healthz"))

	rec := &ambientRecorder{}
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	mw(rec).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, rec.called)
	require.ErrorIs(t, rec.err, tenant.ErrNoTenantContext)
}

func TestMiddleware_PathParam(t *testing.T) {
	t.Parallel()

	stMary := newTestTenant("st-mary", true)
	resolver := tenant.NewResolver(newMockDirectory(stMary))

	rec := &ambientRecorder{}
	r := chi.NewRouter()
	r.Route("/hospitals/{tenantCode}", func(r chi.Router) {
		r.Use(tenant.Middleware(resolver))
		r.Get("/patients", rec.ServeHTTP)
	})

	p := &authn.Principal{UserID: uuid.New(), Role: authn.RoleSuperAdmin}
	req := httptest.NewRequest(http.MethodGet, "/hospitals/st-mary/patients", nil)
	req = req.WithContext(authn.WithPrincipal(req.Context(), p))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, rec.err)
	assert.Equal(t, stMary.ID, rec.tenantID)
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	t.Run("passes bound requests through", func(t *testing.T) {
		t.Parallel()

		rec := &ambientRecorder{}
		id := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/patients", nil)
		req = req.WithContext(tenant.WithCurrent(req.Context(), id))
		w := httptest.NewRecorder()

		tenant.RequireTenant(nil)(rec).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, id, rec.tenantID)
	})

	t.Run("rejects unbound requests", func(t *testing.T) {
		t.Parallel()

		rec := &ambientRecorder{}
		req := httptest.NewRequest(http.MethodGet, "/patients", nil)
		w := httptest.NewRecorder()

		tenant.RequireTenant(nil)(rec).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.False(t, rec.called)
	})
}
