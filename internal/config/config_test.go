package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("DELETE_GRACE_PERIOD", "")
	t.Setenv("ALLOWED_EMAIL_DOMAINS", "")
	t.Setenv("DEBUG", "")

	cfg := Load()

	assert.Equal(t, "test_", cfg.TablePrefix)
	assert.Equal(t, "https://example.supabase.co/auth/v1/.well-known/jwks.json", cfg.SupabaseJWKSURL)
	assert.Equal(t, DefaultDeleteGracePeriod, cfg.DeleteGracePeriod)
	assert.Empty(t, cfg.AllowedEmailDomains)
	assert.True(t, cfg.Debug)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("TABLE_PREFIX", "custom_")
	t.Setenv("DELETE_GRACE_PERIOD", "5s")
	t.Setenv("ALLOWED_EMAIL_DOMAINS", " uni.edu, ,staff.uni.edu ")
	t.Setenv("DEBUG", "")

	cfg := Load()

	assert.Equal(t, "custom_", cfg.TablePrefix)
	assert.Equal(t, 5*time.Second, cfg.DeleteGracePeriod)
	assert.Equal(t, []string{"uni.edu", "staff.uni.edu"}, cfg.AllowedEmailDomains)
	assert.False(t, cfg.Debug)
}

func TestGetDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"unset", "", time.Minute},
		{"valid", "90s", 90 * time.Second},
		{"garbage", "soon", time.Minute},
		{"negative", "-5s", time.Minute},
		{"zero", "0s", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := getDuration("TEST_DURATION", time.Minute); got != tt.want {
				t.Errorf("getDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetTablePrefix(t *testing.T) {
	tests := map[string]string{
		"prod": "prod_",
		"test": "test_",
		"dev":  "dev_",
		"":     "dev_",
	}
	for env, want := range tests {
		t.Setenv("TABLE_PREFIX", "")
		if got := getTablePrefix(env); got != want {
			t.Errorf("getTablePrefix(%q) = %q, want %q", env, got, want)
		}
	}
}

func TestSetupLogFile_RemovesOldest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"server-2020-01-01T00-00-00.log", "server-2020-01-02T00-00-00.log", "other.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	f, err := SetupLogFile(dir, "server", 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	_, err = os.Stat(filepath.Join(dir, "server-2020-01-01T00-00-00.log"))
	assert.True(t, os.IsNotExist(err), "oldest log should be removed")
	_, err = os.Stat(filepath.Join(dir, "other.log"))
	assert.NoError(t, err, "unrelated files are kept")
}
