// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool with
// retry on startup, goose/v3 schema migrations, a health check closure and
// error classification helpers.
//
// The package keeps a small API surface and leans on the upstream libraries
// for everything else:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil { ... }
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil { ... }
//
// Migrations include the row-level-security policies that make tenant
// isolation a database-enforced property; see the migrations directory.
package pg
