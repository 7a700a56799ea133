// Package auth provides credentials, session tokens and authorization for
// the application.
//
// Sessions are stateless HS256 JWTs carrying {id, email, role, name}. There
// is no server-side revocation; logging out means discarding the token on
// the client.
//
// # Configuration
//
//	AUTH_JWT_SECRET=<secret>   # Generated per process if empty (tokens die on restart)
//	AUTH_TOKEN_TTL=1h          # Token lifetime
//	AUTH_BCRYPT_COST=10        # bcrypt cost factor
//
// # Authorization
//
// Every allow/deny decision goes through policy.go: RequireAuthenticated,
// RequireAdmin and RequireSelfOrAdmin over a *Principal. The gin guards
// Authenticated and AdminOnly wrap the same functions, and services call them
// directly for ownership checks.
//
// # Usage
//
//	issuer := auth.NewTokenIssuer(secret, cfg.Auth.TokenTTL)
//	authService := auth.NewService(usersRepo, issuer, cfg.Auth)
//	router.Use(auth.NewMiddleware(authService).Handler())
//	api.GET("/borrows", auth.AdminOnly(), borrows.List)
//
// Extract the caller in handlers:
//
//	principal := auth.GetPrincipal(c) // nil for anonymous callers
package auth
