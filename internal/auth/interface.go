package auth

import (
	"context"

	"coursehub/internal/domain/models"
)

// JWTVerifier defines the interface for JWT token verification.
// This abstraction allows for different JWT verification implementations
// while keeping the middleware agnostic to the verification details.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	// Should be called when the verifier is no longer needed.
	Close() error
}

// IdentityProvider signs teachers in and manages their accounts.
type IdentityProvider interface {
	// SignIn returns a session, or one of domain.ErrAccessDenied,
	// domain.ErrEmailNotVerified, domain.ErrInvalidCredentials.
	SignIn(ctx context.Context, email, password string) (*models.Session, error)

	// SignUp registers a teacher. The account stays unverified until the
	// emailed link is followed.
	SignUp(ctx context.Context, name, email, password string) (*models.Identity, error)

	// SendVerification re-sends the verification email.
	SendVerification(ctx context.Context, identity *models.Identity) error

	// ResetPassword sends a password recovery email.
	ResetPassword(ctx context.Context, email string) error
}
