// Package secrets pulls server-held credentials from a HashiCorp Vault KV
// mount into the process environment before configuration is loaded.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/medivisit/hospitalfinder/pkg/retry"
)

// ManagedKeys are the only environment variables Vault may populate.
var ManagedKeys = []string{"REGISTRY_SERVICE_KEY", "REDIS_PASSWORD"}

type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	Overwrite bool
}

// Result counts what ApplyVaultSecrets did. It never carries secret values.
type Result struct {
	Loaded  []string
	Skipped []string
	Ignored int
}

func LoadVaultConfigFromEnv() VaultConfig {
	cfg := VaultConfig{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     os.Getenv("VAULT_MOUNT"),
		Path:      os.Getenv("VAULT_PATH"),
		KVVersion: 2,
		Timeout:   5 * time.Second,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
	if cfg.Mount == "" {
		cfg.Mount = "secret"
	}
	if v, err := strconv.Atoi(os.Getenv("VAULT_KV_VERSION")); err == nil && (v == 1 || v == 2) {
		cfg.KVVersion = v
	}
	if d, err := time.ParseDuration(os.Getenv("VAULT_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	return cfg
}

// ApplyVaultSecrets reads cfg.Path and exports the managed keys it holds.
// Keys already set in the environment win unless cfg.Overwrite is true.
func ApplyVaultSecrets(ctx context.Context, cfg VaultConfig, retryCfg retry.Config) (Result, error) {
	if !cfg.Enabled {
		return Result{}, nil
	}

	var values map[string]string
	err := retry.Do(ctx, retryCfg, func() error {
		var fetchErr error
		values, fetchErr = fetch(ctx, cfg)
		return fetchErr
	})
	if err != nil {
		return Result{}, err
	}

	var res Result
	for key := range values {
		if !isManaged(key) {
			res.Ignored++
		}
	}
	for _, key := range ManagedKeys {
		value, ok := values[key]
		if !ok {
			continue
		}
		if !cfg.Overwrite && os.Getenv(key) != "" {
			res.Skipped = append(res.Skipped, key)
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return res, fmt.Errorf("setting %s: %w", key, err)
		}
		res.Loaded = append(res.Loaded, key)
	}
	return res, nil
}

func fetch(ctx context.Context, cfg VaultConfig) (map[string]string, error) {
	endpoint, err := secretURL(cfg)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", cfg.Token)
	if cfg.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", cfg.Namespace)
	}

	resp, err := (&http.Client{Timeout: cfg.Timeout}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("vault request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vault returned %s for %s", resp.Status, cfg.Path)
	}
	return decodeSecret(body, cfg.KVVersion)
}

func secretURL(cfg VaultConfig) (string, error) {
	addr := strings.TrimRight(cfg.Addr, "/")
	mount := strings.Trim(cfg.Mount, "/")
	path := strings.Trim(cfg.Path, "/")
	if addr == "" || cfg.Token == "" || mount == "" || path == "" {
		return "", errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_MOUNT, VAULT_PATH)")
	}
	if cfg.KVVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path), nil
}

// decodeSecret handles both KV layouts: v1 keeps values in "data", v2 nests
// them one level deeper in "data.data".
func decodeSecret(body []byte, kvVersion int) (map[string]string, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding vault response: %w", err)
	}
	raw := envelope.Data
	if kvVersion != 1 {
		var inner struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("decoding vault KV v2 data: %w", err)
		}
		raw = inner.Data
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("vault response has no data for KV v%d", kvVersion)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decoding vault fields: %w", err)
	}

	out := make(map[string]string, len(fields))
	for key, value := range fields {
		switch v := value.(type) {
		case string:
			out[key] = v
		case nil:
			out[key] = ""
		case bool:
			out[key] = strconv.FormatBool(v)
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			encoded, _ := json.Marshal(v)
			out[key] = string(encoded)
		}
	}
	return out, nil
}

func isManaged(key string) bool {
	for _, k := range ManagedKeys {
		if k == key {
			return true
		}
	}
	return false
}
