package secrets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/vault/api"
)

// VaultDecrypter resolves "{vault:path/to/secret#key}" tokens from a Vault
// KV v2 mount. Without "#key" the "value" key is read.
type VaultDecrypter struct {
	// MountPath is the KV v2 mount path (default: "secret").
	MountPath string

	// CacheTTL is how long to cache resolved secrets (default: 5 minutes).
	CacheTTL time.Duration

	client *api.Client
	mu     sync.RWMutex
	cache  map[string]cacheEntry
}

type cacheEntry struct {
	value   string
	expires time.Time
}

// NewVaultDecrypter creates a decrypter talking to the Vault server at address.
func NewVaultDecrypter(address, token string) (*VaultDecrypter, error) {
	config := api.DefaultConfig()
	config.Address = strings.TrimRight(address, "/")
	config.Timeout = 10 * time.Second
	config.MaxRetries = 0

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	return &VaultDecrypter{
		MountPath: "secret",
		CacheTTL:  5 * time.Minute,
		client:    client,
		cache:     make(map[string]cacheEntry),
	}, nil
}

// Decrypt fetches the secret a {vault:...} token points at.
func (v *VaultDecrypter) Decrypt(ctx context.Context, token string) (string, error) {
	scheme, ref, ok := schemeBody(token)
	if !ok || scheme != "vault" {
		return "", fmt.Errorf("%w: %q (expected {vault:path#key})", ErrUnsupportedToken, token)
	}

	path, key := ref, "value"
	if idx := strings.Index(ref, "#"); idx >= 0 {
		path = ref[:idx]
		key = ref[idx+1:]
	}
	path = strings.Trim(path, "/")
	if path == "" || key == "" {
		return "", fmt.Errorf("invalid vault reference %q", ref)
	}

	cacheKey := path + "#" + key

	v.mu.RLock()
	if entry, ok := v.cache[cacheKey]; ok && time.Now().Before(entry.expires) {
		v.mu.RUnlock()
		return entry.value, nil
	}
	v.mu.RUnlock()

	value, err := v.fetch(ctx, path, key)
	if err != nil {
		return "", err
	}

	v.mu.Lock()
	v.cache[cacheKey] = cacheEntry{
		value:   value,
		expires: time.Now().Add(v.CacheTTL),
	}
	v.mu.Unlock()

	return value, nil
}

func (v *VaultDecrypter) fetch(ctx context.Context, path, key string) (string, error) {
	// KV v2 read: GET /v1/{mount}/data/{path}
	fullPath := fmt.Sprintf("%s/data/%s", strings.Trim(v.MountPath, "/"), path)

	secret, err := v.client.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		return "", fmt.Errorf("vault read %s: %w", fullPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault secret %s not found", fullPath)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid data format in vault response for %s", fullPath)
	}

	val, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in vault secret at %s", key, path)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("vault key %q at %s is not a string", key, path)
	}
	return s, nil
}
