package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"net/url"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"coursehub/internal/config"
	"coursehub/internal/domain"
	"coursehub/internal/domain/models"
)

// GoTrueClient talks to the Supabase Auth (GoTrue) REST API with the
// project's anon key.
type GoTrueClient struct {
	supabaseURL    string
	anonKey        string
	allowedDomains []string
	redirectURL    string
	httpClient     *http.Client
	logger         *slog.Logger
}

var _ IdentityProvider = (*GoTrueClient)(nil)

// GoTrueOptions configure a GoTrueClient.
type GoTrueOptions struct {
	// AllowedDomains restricts sign-in and sign-up to these email domains.
	// Empty allows any domain.
	AllowedDomains []string
	// RedirectURL is where verification and recovery links land.
	RedirectURL string
}

func NewGoTrueClient(supabaseURL, anonKey string, opts GoTrueOptions, logger *slog.Logger) *GoTrueClient {
	return &GoTrueClient{
		supabaseURL:    strings.TrimRight(supabaseURL, "/"),
		anonKey:        anonKey,
		allowedDomains: opts.AllowedDomains,
		redirectURL:    opts.RedirectURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// gotrueUser is the user object returned by GoTrue.
type gotrueUser struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at"`
	UserMetadata     map[string]interface{} `json:"user_metadata"`
}

func (u *gotrueUser) identity() *models.Identity {
	id := &models.Identity{
		UserID:        u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailConfirmedAt != nil,
	}
	if name, ok := u.UserMetadata["name"].(string); ok {
		id.Name = name
	}
	return id
}

type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int        `json:"expires_in"`
	User         gotrueUser `json:"user"`
}

// gotrueError covers both the legacy OAuth-style and the current error bodies.
type gotrueError struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e gotrueError) message() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return "unknown error"
}

// StatusError is a non-2xx GoTrue response that maps to no domain error.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("identity provider returned %d: %s", e.Status, e.Message)
}

func (c *GoTrueClient) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = normalizeEmail(email)
	if err := validation.Validate(email, validation.Required, validation.By(validEmail)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !c.domainAllowed(email) {
		c.logger.Info("sign-in rejected for domain", "email", email)
		return nil, domain.ErrAccessDenied
	}

	var resp tokenResponse
	err := c.post(ctx, "/auth/v1/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			switch {
			case se.Code == "email_not_confirmed" || strings.Contains(strings.ToLower(se.Message), "email not confirmed"):
				return nil, domain.ErrEmailNotVerified
			case se.Status == http.StatusBadRequest || se.Status == http.StatusUnauthorized:
				return nil, domain.ErrInvalidCredentials
			}
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	identity := resp.User.identity()
	if !identity.EmailVerified {
		return nil, domain.ErrEmailNotVerified
	}

	c.logger.Info("teacher signed in", "user_id", identity.UserID)
	return &models.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		Identity:     identity,
	}, nil
}

type signUpRequest struct {
	Name     string
	Email    string
	Password string
}

func (c *GoTrueClient) SignUp(ctx context.Context, name, email, password string) (*models.Identity, error) {
	req := &signUpRequest{
		Name:     strings.TrimSpace(name),
		Email:    normalizeEmail(email),
		Password: password,
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.RuneLength(1, config.MaxNameLength)),
		validation.Field(&req.Email, validation.Required, validation.By(validEmail)),
		validation.Field(&req.Password, validation.Required, validation.Length(config.MinPasswordLength, 72)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if !c.domainAllowed(req.Email) {
		return nil, domain.ErrAccessDenied
	}

	body := map[string]interface{}{
		"email":    req.Email,
		"password": req.Password,
		"data":     map[string]string{"name": req.Name},
	}

	// With autoconfirm off GoTrue answers with the bare user, otherwise with
	// a session wrapping it.
	var raw json.RawMessage
	if err := c.post(ctx, c.withRedirect("/auth/v1/signup"), body, &raw); err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Code == "user_already_exists" || se.Status == http.StatusUnprocessableEntity) {
			return nil, &domain.ConflictError{Message: se.Message, ResourceType: "user"}
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}

	var user gotrueUser
	var session tokenResponse
	if err := json.Unmarshal(raw, &session); err == nil && session.User.ID != "" {
		user = session.User
	} else if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode sign up response: %w", err)
	}

	c.logger.Info("teacher signed up", "user_id", user.ID, "verified", user.EmailConfirmedAt != nil)
	return user.identity(), nil
}

func (c *GoTrueClient) SendVerification(ctx context.Context, identity *models.Identity) error {
	if identity == nil || identity.Email == "" {
		return &domain.ValidationError{Message: "email is required"}
	}
	if err := c.post(ctx, c.withRedirect("/auth/v1/resend"), map[string]string{
		"type":  "signup",
		"email": identity.Email,
	}, nil); err != nil {
		return fmt.Errorf("send verification: %w", err)
	}
	c.logger.Info("verification email sent", "user_id", identity.UserID)
	return nil
}

func (c *GoTrueClient) ResetPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validation.Validate(email, validation.Required, validation.By(validEmail)); err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("email: %v", err)}
	}
	if err := c.post(ctx, c.withRedirect("/auth/v1/recover"), map[string]string{"email": email}, nil); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	c.logger.Info("password recovery requested")
	return nil
}

func (c *GoTrueClient) post(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.supabaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ge gotrueError
		_ = json.Unmarshal(body, &ge)
		code := ge.ErrorCode
		if code == "" {
			code = ge.Error
		}
		c.logger.Debug("identity provider error", "path", path, "status", resp.StatusCode, "code", code)
		return &StatusError{Status: resp.StatusCode, Code: code, Message: ge.message()}
	}

	if dest == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *GoTrueClient) withRedirect(path string) string {
	if c.redirectURL == "" {
		return path
	}
	return path + "?redirect_to=" + url.QueryEscape(c.redirectURL)
}

func (c *GoTrueClient) domainAllowed(email string) bool {
	return emailDomainAllowed(c.allowedDomains, email)
}

// emailDomainAllowed reports whether email belongs to one of domains. An
// empty list allows every domain.
func emailDomainAllowed(domains []string, email string) bool {
	if len(domains) == 0 {
		return true
	}
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	return slices.Contains(domains, strings.ToLower(email[at+1:]))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(value interface{}) error {
	s, _ := value.(string)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return errors.New("must be a valid email address")
	}
	return nil
}
