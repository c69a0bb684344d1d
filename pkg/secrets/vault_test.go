package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medivisit/hospitalfinder/pkg/retry"
)

func oneShot() retry.Config {
	return retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond}
}

func vaultServer(t *testing.T, wantPath, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath || r.Header.Get("X-Vault-Token") != "root-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestApplyVaultSecrets_KV2(t *testing.T) {
	server := vaultServer(t, "/v1/secret/data/hospital-finder",
		`{"data":{"data":{"REGISTRY_SERVICE_KEY":"s3cr3t","REDIS_PASSWORD":"pw","UNRELATED":"x"}}}`)
	t.Setenv("REGISTRY_SERVICE_KEY", "")
	t.Setenv("REDIS_PASSWORD", "already-set")

	res, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled: true, Addr: server.URL, Token: "root-token", Mount: "secret",
		Path: "hospital-finder", KVVersion: 2, Timeout: time.Second,
	}, oneShot())

	require.NoError(t, err)
	assert.Equal(t, []string{"REGISTRY_SERVICE_KEY"}, res.Loaded)
	assert.Equal(t, []string{"REDIS_PASSWORD"}, res.Skipped)
	assert.Equal(t, 1, res.Ignored)
	assert.Equal(t, "s3cr3t", os.Getenv("REGISTRY_SERVICE_KEY"))
	assert.Equal(t, "already-set", os.Getenv("REDIS_PASSWORD"))
}

func TestApplyVaultSecrets_KV1Overwrite(t *testing.T) {
	server := vaultServer(t, "/v1/kv/hospital-finder", `{"data":{"REGISTRY_SERVICE_KEY":"fresh"}}`)
	t.Setenv("REGISTRY_SERVICE_KEY", "stale")

	res, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled: true, Addr: server.URL + "/", Token: "root-token", Mount: "/kv/",
		Path: "/hospital-finder", KVVersion: 1, Timeout: time.Second, Overwrite: true,
	}, oneShot())

	require.NoError(t, err)
	assert.Equal(t, []string{"REGISTRY_SERVICE_KEY"}, res.Loaded)
	assert.Equal(t, "fresh", os.Getenv("REGISTRY_SERVICE_KEY"))
}

func TestApplyVaultSecrets_Disabled(t *testing.T) {
	res, err := ApplyVaultSecrets(context.Background(), VaultConfig{}, oneShot())
	require.NoError(t, err)
	assert.Empty(t, res.Loaded)
}

func TestApplyVaultSecrets_Errors(t *testing.T) {
	server := vaultServer(t, "/v1/secret/data/other", `{}`)

	_, err := ApplyVaultSecrets(context.Background(), VaultConfig{Enabled: true, Addr: server.URL}, oneShot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")

	_, err = ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled: true, Addr: server.URL, Token: "wrong", Mount: "secret", Path: "hospital-finder", KVVersion: 2, Timeout: time.Second,
	}, oneShot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.NotContains(t, err.Error(), "wrong")
}

func TestDecodeSecret(t *testing.T) {
	values, err := decodeSecret([]byte(`{"data":{"data":{"n":42,"b":true,"z":null,"o":{"a":1}}}}`), 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"n": "42", "b": "true", "z": "", "o": `{"a":1}`}, values)

	_, err = decodeSecret([]byte(`{"data":null}`), 1)
	assert.Error(t, err)

	_, err = decodeSecret([]byte(`not json`), 2)
	assert.Error(t, err)
}
