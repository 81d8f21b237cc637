// Package handlers contains HTTP handler interfaces, implementations, and
// middleware shared by the progress engine API server.
//
// This package provides:
//   - Health check interfaces and implementations
//   - Reusable middleware components (timeouts, body limits, security headers)
//
// # Health Checks
//
// The HealthChecker interface allows registering multiple named health checks
// that are executed in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("postgres", handlers.NewDatabaseCheck(db))
//	checker.AddCheck("redis", handlers.NewCacheCheck(cache))
//
//	status := checker.Check(ctx)
//	if !status.Healthy {
//	    log.Printf("Health check failed: %s", status.Message)
//	}
//
// # Middleware
//
// Middleware components compose with Chain:
//
//	wrapped := handlers.Chain(
//	    handlers.TimeoutMiddleware(10*time.Second),
//	    handlers.RequestSizeLimitMiddleware(1<<20),
//	    handlers.SecurityHeadersMiddleware,
//	)(mux)
package handlers
