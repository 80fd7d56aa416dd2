package models

import "github.com/golang-jwt/jwt/v5"

// SupabaseClaims represents the JWT claims structure from Supabase Auth.
// See: https://supabase.com/docs/guides/auth/jwts
type SupabaseClaims struct {
	jwt.RegisteredClaims                        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string                 `json:"email"`
	Phone                string                 `json:"phone"`
	AppMetadata          map[string]interface{} `json:"app_metadata"`
	UserMetadata         map[string]interface{} `json:"user_metadata"`
	Role                 string                 `json:"role"` // "authenticated" or "anon"
	AAL                  string                 `json:"aal"`
	SessionID            string                 `json:"session_id"`
	IsAnonymous          bool                   `json:"is_anonymous"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *SupabaseClaims) GetUserID() string {
	return c.Subject
}

// Identity converts verified claims into a portal user.
func (c *SupabaseClaims) Identity() *Identity {
	id := &Identity{
		UserID: c.Subject,
		Email:  c.Email,
	}
	if name, ok := c.UserMetadata["name"].(string); ok {
		id.Name = name
	}
	if verified, ok := c.UserMetadata["email_verified"].(bool); ok {
		id.EmailVerified = verified
	}
	return id
}

// Identity is an authenticated teacher.
type Identity struct {
	UserID        string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// Session is returned by a successful sign-in.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int       `json:"expires_in"`
	Identity     *Identity `json:"user"`
}
