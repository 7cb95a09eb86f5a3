// Package auth provides account registration, login and bearer-token
// authentication for the API.
//
// Passwords are hashed with bcrypt. Login issues an HS256 JWT whose subject
// is the user ID; API routes validate it with Middleware.RequireAuth.
//
// # Configuration
//
//	AUTH_JWT_SECRET=<hex>      # Auto-generated per process if empty
//	AUTH_TOKEN_DURATION=24h    # Token lifetime
//	AUTH_BCRYPT_COST=12        # bcrypt cost factor
//
// # Usage
//
//	tokens := auth.NewTokenManager(secret, cfg.Auth.TokenDuration)
//	service := auth.NewService(usersRepo, tokens, cfg.Auth)
//	api.Use(auth.NewMiddleware(tokens).RequireAuth())
//
// Extract the caller in handlers:
//
//	userID := auth.GetUserID(c)
package auth
