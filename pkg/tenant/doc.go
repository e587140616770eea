// Package tenant implements the tenant-resolution and access-control
// pipeline that every authenticated request passes through before it may
// touch any hospital-owned data.
//
// The pipeline has four strictly ordered stages:
//
//  1. Resolve: Resolver picks the target tenant from the principal's home
//     membership or, for roles allowed to cross tenants, from an explicit
//     header or path code looked up in the Directory.
//  2. Authorize: the access guard checks that the principal may act in the
//     resolved tenant; super admins pass for any tenant, everyone else only
//     for their home one.
//  3. Bind: WithCurrent stores the tenant id in the request context. The
//     binding is per-request by construction: there is no process-wide
//     current tenant to race on, and the value dies with the request.
//  4. Enforce: data access reads the ambient tenant via CurrentID, which
//     fails loudly with ErrNoTenantContext rather than defaulting.
//
// Middleware wires the first three stages into a chi-compatible handler
// chain; the tenantdb package implements the fourth at the storage boundary.
//
// Directory lookups can be fronted by a Cache (in-memory LRU or Redis) via
// NewCachedDirectory.
package tenant
