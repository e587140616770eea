// Package logger builds configured log/slog loggers with context-aware
// attribute injection.
//
// The factory produces either JSON (production) or text (development)
// handlers and can decorate them with ContextExtractor functions that pull
// request-scoped values, such as the current tenant id, out of the context on
// every log call:
//
//	log := logger.New(
//		logger.WithProduction("clinlog"),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
// Attr helpers (logger.Error, logger.TenantID, ...) keep attribute keys
// consistent across the codebase.
package logger
