// Package jwt authenticates API callers with HS256 JSON Web Tokens issued
// through github.com/golang-jwt/jwt/v5.
//
// MiddlewareWithConfig extracts a token (Bearer header, cookie or query
// parameter), verifies it with a Service and stores the Claims in the request
// context. In Optional mode requests without a token continue as anonymous,
// which is how the notification stream serves the global feed.
//
// RequireRole guards admin routes and answers 403 {"error":"Unauthorized"}
// when the caller's role claim does not match.
//
//	svc, _ := jwt.NewFromConfig(cfg)
//	r.Use(jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{Service: svc, Optional: true}))
//	r.With(jwt.RequireRole(cfg.AdminRole, nil)).Get("/notifications/admin", list)
package jwt
