package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"coursehub/internal/domain"
	"coursehub/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// SupabaseJWTVerifier implements JWTVerifier using JWKS from Supabase.
type SupabaseJWTVerifier struct {
	keyfunc        jwt.Keyfunc
	parser         *jwt.Parser
	allowedDomains []string
	cancel         context.CancelFunc
	logger         *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from Supabase's
// JWKS endpoint. keyfunc refreshes the key set in the background until Close.
// Tokens whose email is outside allowedDomains are rejected, so a teacher
// removed from the allow-list loses access without waiting for expiry.
func NewJWTVerifier(jwksURL string, allowedDomains []string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)
	v := newVerifier(jwks.Keyfunc, allowedDomains, logger)
	v.cancel = cancel
	return v, nil
}

func newVerifier(keys jwt.Keyfunc, allowedDomains []string, logger *slog.Logger) *SupabaseJWTVerifier {
	return &SupabaseJWTVerifier{
		keyfunc: keys,
		// Only asymmetric algorithms, which also rules out alg confusion
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256", "ES256"}),
			jwt.WithExpirationRequired(),
		),
		allowedDomains: allowedDomains,
		logger:         logger,
	}
}

// VerifyToken validates a JWT token and extracts Supabase claims.
// Returns domain.ErrUnauthorized for any invalid, expired or anonymous token
// and domain.ErrAccessDenied for a teacher outside the allowed domains.
func (v *SupabaseJWTVerifier) VerifyToken(tokenString string) (*models.SupabaseClaims, error) {
	claims := &models.SupabaseClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.keyfunc)
	if err != nil || !token.Valid {
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	switch {
	case claims.Subject == "":
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	case claims.Role != "authenticated" || claims.IsAnonymous:
		v.logger.Warn("token has invalid role",
			"role", claims.Role,
			"anonymous", claims.IsAnonymous,
			"user_id", claims.Subject)
		return nil, domain.ErrUnauthorized
	case !emailDomainAllowed(v.allowedDomains, claims.Email):
		v.logger.Warn("token email outside allowed domains", "user_id", claims.Subject)
		return nil, domain.ErrAccessDenied
	}

	return claims, nil
}

// Close stops the background JWKS refresh.
func (v *SupabaseJWTVerifier) Close() error {
	if v.cancel != nil {
		v.cancel()
	}
	v.logger.Info("JWT verifier closed")
	return nil
}
