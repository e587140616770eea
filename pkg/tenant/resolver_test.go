package tenant_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinlog/clinlog/pkg/authn"
	"github.com/clinlog/clinlog/pkg/tenant"
)

// mockDirectory is an in-memory tenant.Directory that counts lookups.
type mockDirectory struct {
	mu      sync.Mutex
	byCode  map[string]*tenant.Tenant
	byID    map[uuid.UUID]*tenant.Tenant
	err     error
	lookups int
}

func newMockDirectory(tenants ...*tenant.Tenant) *mockDirectory {
	d := &mockDirectory{
		byCode: make(map[string]*tenant.Tenant),
		byID:   make(map[uuid.UUID]*tenant.Tenant),
	}
	for _, t := range tenants {
		d.byCode[t.Code] = t
		d.byID[t.ID] = t
	}
	return d
}

func (d *mockDirectory) GetByCode(ctx context.Context, code string) (*tenant.Tenant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups++
	if d.err != nil {
		return nil, d.err
	}
	t, ok := d.byCode[code]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (d *mockDirectory) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups++
	if d.err != nil {
		return nil, d.err
	}
	t, ok := d.byID[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (d *mockDirectory) lookupCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookups
}

func newTestTenant(code string, active bool) *tenant.Tenant {
	return &tenant.Tenant{
		ID:          uuid.New(),
		Code:        code,
		DisplayName: code,
		Active:      active,
		CreatedAt:   time.Now(),
	}
}

func principalWithHome(role authn.Role, home uuid.UUID) *authn.Principal {
	return &authn.Principal{UserID: uuid.New(), Role: role, HomeTenantID: &home}
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stMary := newTestTenant("st-mary", true)
	northside := newTestTenant("northside", true)
	closedDown := newTestTenant("closed-down", false)

	t.Run("defaults to home tenant", func(t *testing.T) {
		t.Parallel()

		dir := newMockDirectory(stMary, northside)
		r := tenant.NewResolver(dir)

		got, err := r.Resolve(ctx, principalWithHome(authn.RoleClinician, stMary.ID), tenant.Signals{})
		require.NoError(t, err)
		assert.Equal(t, stMary.ID, got)
		assert.Zero(t, dir.lookupCount(), "home resolution must not hit the directory")
	})

	t.Run("clinician signal is ignored, not an error", func(t *testing.T) {
		t.Parallel()

		dir := newMockDirectory(stMary, northside)
		r := tenant.NewResolver(dir)
		p := principalWithHome(authn.RoleClinician, stMary.ID)

		got, err := r.Resolve(ctx, p, tenant.Signals{HeaderCode: northside.Code})
		require.NoError(t, err)
		assert.Equal(t, stMary.ID, got, "a stray header must not redirect a clinician")
		assert.Zero(t, dir.lookupCount())
	})

	t.Run("admin signal is ignored too", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewResolver(newMockDirectory(stMary, northside))
		p := principalWithHome(authn.RoleAdmin, stMary.ID)

		got, err := r.Resolve(ctx, p, tenant.Signals{PathCode: northside.Code})
		require.NoError(t, err)
		assert.Equal(t, stMary.ID, got)
	})

	t.Run("super admin override via header", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewResolver(newMockDirectory(stMary, northside))
		p := principalWithHome(authn.RoleSuperAdmin, stMary.ID)

		got, err := r.Resolve(ctx, p, tenant.Signals{HeaderCode: northside.Code})
		require.NoError(t, err)
		assert.Equal(t, northside.ID, got)
	})

	t.Run("header takes precedence over path", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewResolver(newMockDirectory(stMary, northside))
		p := principalWithHome(authn.RoleSuperAdmin, stMary.ID)

		got, err := r.Resolve(ctx, p, tenant.Signals{HeaderCode: northside.Code, PathCode: stMary.Code})
		require.NoError(t, err)
		assert.Equal(t, northside.ID, got)
	})

	t.Run("super admin without signal stays home", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewResolver(newMockDirectory(stMary, northside))
		p := principalWithHome(authn.RoleSuperAdmin, stMary.ID)

		got, err := r.Resolve(ctx, p, tenant.Signals{})
		require.NoError(t, err)
		assert.Equal(t, stMary.ID, got)
	})

	t.Run("no home tenant resolves header then path", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewResolver(newMockDirectory(stMary, northside))
		p := &authn.Principal{UserID: uuid.New(), Role: authn.RoleSuperAdmin}

		got, err := r.Resolve(ctx, p, tenant.Signals{HeaderCode: stMary.Code})
		require.NoError(t, err)
		assert.Equal(t, stMary.ID, got)

		got, err = r.Resolve(ctx, p, tenant.Signals{PathCode: northside.Code})
		require.NoError(t, err)
		assert.Equal(t, northside.ID, got)
	})

	t.Run("no home and no signal fails", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewResolver(newMockDirectory(stMary))
		p := &authn.Principal{UserID: uuid.New(), Role: authn.RoleSuperAdmin}

		_, err := r.Resolve(ctx, p, tenant.Signals{})
		require.ErrorIs(t, err, tenant.ErrTenantRequired)
	})

	t.Run("unknown code", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewResolver(newMockDirectory(stMary))
		p := principalWithHome(authn.RoleSuperAdmin, stMary.ID)

		_, err := r.Resolve(ctx, p, tenant.Signals{HeaderCode: "no-such-hospital"})
		require.ErrorIs(t, err, tenant.ErrTenantUnknown)
	})

	t.Run("inactive tenant resolves like an unknown one", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewResolver(newMockDirectory(stMary, closedDown))
		p := principalWithHome(authn.RoleSuperAdmin, stMary.ID)

		_, err := r.Resolve(ctx, p, tenant.Signals{HeaderCode: closedDown.Code})
		require.ErrorIs(t, err, tenant.ErrTenantUnknown)
	})

	t.Run("nil principal", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewResolver(newMockDirectory(stMary))

		_, err := r.Resolve(ctx, nil, tenant.Signals{})
		require.ErrorIs(t, err, tenant.ErrNoPrincipal)
	})

	t.Run("directory failures pass through", func(t *testing.T) {
		t.Parallel()

		dir := newMockDirectory()
		dir.err = errors.New("registry down")
		r := tenant.NewResolver(dir)
		p := &authn.Principal{UserID: uuid.New(), Role: authn.RoleClinician}

		_, err := r.Resolve(ctx, p, tenant.Signals{HeaderCode: "st-mary"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, tenant.ErrTenantUnknown)
	})

	t.Run("resolution is deterministic", func(t *testing.T) {
		t.Parallel()

		r := tenant.NewResolver(newMockDirectory(stMary, northside))
		p := principalWithHome(authn.RoleSuperAdmin, stMary.ID)
		signals := tenant.Signals{HeaderCode: northside.Code}

		first, err := r.Resolve(ctx, p, signals)
		require.NoError(t, err)
		second, err := r.Resolve(ctx, p, signals)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
