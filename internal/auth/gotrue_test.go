package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/internal/domain"
	"coursehub/internal/domain/models"
)

type fakeGoTrue struct {
	mu       sync.Mutex
	requests []recorded
	respond  func(w http.ResponseWriter, r *http.Request, body map[string]interface{})
}

type recorded struct {
	Path   string
	Query  string
	APIKey string
	Body   map[string]interface{}
}

func (f *fakeGoTrue) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.requests = append(f.requests, recorded{Path: r.URL.Path, Query: r.URL.RawQuery, APIKey: r.Header.Get("apikey"), Body: body})
	f.mu.Unlock()

	f.respond(w, r, body)
}

func (f *fakeGoTrue) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newClient(t *testing.T, respond func(http.ResponseWriter, *http.Request, map[string]interface{}), opts GoTrueOptions) (*GoTrueClient, *fakeGoTrue) {
	t.Helper()
	fake := &fakeGoTrue{respond: respond}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewGoTrueClient(srv.URL, "anon-key", opts, slog.New(slog.NewTextHandler(io.Discard, nil))), fake
}

func confirmedUser() map[string]interface{} {
	return map[string]interface{}{
		"id":                 "user-1",
		"email":              "teacher@uni.edu",
		"email_confirmed_at": "2024-01-02T03:04:05Z",
		"user_metadata":      map[string]interface{}{"name": "Ada"},
	}
}

func TestSignIn_Success(t *testing.T) {
	client, fake := newClient(t, func(w http.ResponseWriter, r *http.Request, body map[string]interface{}) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token":  "jwt",
			"refresh_token": "refresh",
			"expires_in":    3600,
			"user":          confirmedUser(),
		})
	}, GoTrueOptions{AllowedDomains: []string{"uni.edu"}})

	session, err := client.SignIn(context.Background(), " Teacher@Uni.edu ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt", session.AccessToken)
	assert.Equal(t, &models.Identity{UserID: "user-1", Email: "teacher@uni.edu", Name: "Ada", EmailVerified: true}, session.Identity)

	req := fake.last()
	assert.Equal(t, "/auth/v1/token", req.Path)
	assert.Equal(t, "grant_type=password", req.Query)
	assert.Equal(t, "anon-key", req.APIKey)
	assert.Equal(t, "teacher@uni.edu", req.Body["email"])
}

func TestSignIn_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		email  string
		status int
		body   map[string]interface{}
		want   error
	}{
		{
			name:  "domain not allowed",
			email: "someone@gmail.com",
			want:  domain.ErrAccessDenied,
		},
		{
			name:   "bad password",
			email:  "teacher@uni.edu",
			status: http.StatusBadRequest,
			body:   map[string]interface{}{"error_code": "invalid_credentials", "msg": "Invalid login credentials"},
			want:   domain.ErrInvalidCredentials,
		},
		{
			name:   "legacy bad password body",
			email:  "teacher@uni.edu",
			status: http.StatusBadRequest,
			body:   map[string]interface{}{"error": "invalid_grant", "error_description": "Invalid login credentials"},
			want:   domain.ErrInvalidCredentials,
		},
		{
			name:   "email not confirmed",
			email:  "teacher@uni.edu",
			status: http.StatusBadRequest,
			body:   map[string]interface{}{"error_code": "email_not_confirmed", "msg": "Email not confirmed"},
			want:   domain.ErrEmailNotVerified,
		},
		{
			name:   "session for unconfirmed user",
			email:  "teacher@uni.edu",
			status: http.StatusOK,
			body: map[string]interface{}{
				"access_token": "jwt",
				"user":         map[string]interface{}{"id": "user-1", "email": "teacher@uni.edu"},
			},
			want: domain.ErrEmailNotVerified,
		},
		{
			name:  "malformed email",
			email: "not-an-email",
			want:  domain.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := newClient(t, func(w http.ResponseWriter, r *http.Request, _ map[string]interface{}) {
				writeJSON(w, tt.status, tt.body)
			}, GoTrueOptions{AllowedDomains: []string{"uni.edu"}})

			_, err := client.SignIn(context.Background(), tt.email, "secret")
			assert.ErrorIs(t, err, tt.want)
			if tt.status == 0 {
				assert.Empty(t, fake.requests, "rejected locally")
			}
		})
	}
}

func TestSignIn_ServerErrorIsGeneric(t *testing.T) {
	client, _ := newClient(t, func(w http.ResponseWriter, r *http.Request, _ map[string]interface{}) {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"msg": "boom"})
	}, GoTrueOptions{})

	_, err := client.SignIn(context.Background(), "teacher@uni.edu", "secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
}

func TestSignUp(t *testing.T) {
	client, fake := newClient(t, func(w http.ResponseWriter, r *http.Request, body map[string]interface{}) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":            "user-2",
			"email":         body["email"],
			"user_metadata": body["data"],
		})
	}, GoTrueOptions{RedirectURL: "https://portal.test/verified"})

	identity, err := client.SignUp(context.Background(), " Grace ", "grace@uni.edu", "hopper1")
	require.NoError(t, err)
	assert.Equal(t, "user-2", identity.UserID)
	assert.Equal(t, "Grace", identity.Name)
	assert.False(t, identity.EmailVerified)

	req := fake.last()
	assert.Equal(t, "/auth/v1/signup", req.Path)
	assert.Contains(t, req.Query, "redirect_to=https%3A%2F%2Fportal.test%2Fverified")

	_, err = client.SignUp(context.Background(), "Grace", "grace@uni.edu", "123")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSignUp_ExistingUserConflicts(t *testing.T) {
	client, _ := newClient(t, func(w http.ResponseWriter, r *http.Request, _ map[string]interface{}) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"error_code": "user_already_exists", "msg": "User already registered"})
	}, GoTrueOptions{})

	_, err := client.SignUp(context.Background(), "Grace", "grace@uni.edu", "hopper1")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSendVerificationAndReset(t *testing.T) {
	client, fake := newClient(t, func(w http.ResponseWriter, r *http.Request, _ map[string]interface{}) {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	}, GoTrueOptions{})
	ctx := context.Background()

	require.NoError(t, client.SendVerification(ctx, &models.Identity{UserID: "user-2", Email: "grace@uni.edu"}))
	req := fake.last()
	assert.Equal(t, "/auth/v1/resend", req.Path)
	assert.Equal(t, "signup", req.Body["type"])

	require.NoError(t, client.ResetPassword(ctx, "grace@uni.edu"))
	assert.Equal(t, "/auth/v1/recover", fake.last().Path)

	assert.ErrorIs(t, client.ResetPassword(ctx, ""), domain.ErrValidation)
	assert.ErrorIs(t, client.SendVerification(ctx, nil), domain.ErrValidation)
}
