package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"communities/messages/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "JWT_SECRET_KEY", EnvKey("jwt_secret_key"))
	assert.Equal(t, "AUTHZ_TOKEN", EnvKey("authz-token"))
	assert.Equal(t, "A_B", EnvKey("a.b"))
}

func TestDisabledManagerReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "env-secret")

	m, err := NewVaultManager(VaultConfig{}, logger.Discard())
	require.NoError(t, err)

	value, err := m.GetSecret(context.Background(), "jwt_secret_key")
	require.NoError(t, err)
	assert.Equal(t, "env-secret", value)

	_, err = m.GetSecret(context.Background(), "missing_key")
	assert.ErrorIs(t, err, ErrSecretNotFound)
	assert.Equal(t, "fallback", m.GetSecretWithDefault(context.Background(), "missing_key", "fallback"))
}

func TestEnabledManagerRequiresAddressAndToken(t *testing.T) {
	_, err := NewVaultManager(VaultConfig{Enabled: true, Token: "t"}, logger.Discard())
	assert.ErrorIs(t, err, ErrNoVaultAddress)

	_, err = NewVaultManager(VaultConfig{Enabled: true, Address: "http://vault:8200"}, logger.Discard())
	assert.ErrorIs(t, err, ErrNoVaultToken)
}

func TestCacheExpires(t *testing.T) {
	m, err := NewVaultManager(VaultConfig{CacheTTL: time.Minute}, logger.Discard())
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	env := map[string]string{"AUTHZ_TOKEN": "first"}
	m.lookup = func(k string) string { return env[k] }

	assert.Equal(t, "first", m.GetSecretWithDefault(context.Background(), "authz_token", ""))

	env["AUTHZ_TOKEN"] = "second"
	assert.Equal(t, "first", m.GetSecretWithDefault(context.Background(), "authz_token", ""))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, "second", m.GetSecretWithDefault(context.Background(), "authz_token", ""))
}

func TestReadsFromVaultKV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/communities-messages", r.URL.Path)
		assert.Equal(t, "root", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"jwt_secret_key":"vault-secret"},"metadata":{}}}`))
	}))
	defer srv.Close()

	m, err := NewVaultManager(VaultConfig{Enabled: true, Address: srv.URL, Token: "root"}, logger.Discard())
	require.NoError(t, err)

	value, err := m.GetSecret(context.Background(), "jwt_secret_key")
	require.NoError(t, err)
	assert.Equal(t, "vault-secret", value)
}
