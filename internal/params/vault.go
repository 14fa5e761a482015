package params

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"
)

// VaultStore serves parameters from the fields of a single KV v2 secret.
// One secret read covers any batch; field names are the bare parameter
// names (the Vault path itself carries the system/env namespace).
type VaultStore struct {
	client *vault.Client
	mount  string
	path   string
}

func NewVaultStore(addr, token, mount, path string) (*VaultStore, error) {
	cfg := vault.DefaultConfig()
	cfg.Address = addr
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client: %w", err)
	}
	client.SetToken(token)
	return &VaultStore{client: client, mount: mount, path: path}, nil
}

func (s *VaultStore) Fetch(ctx context.Context, names []string) (map[string]string, error) {
	secret, err := s.client.KVv2(s.mount).Get(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: vault read: %v", ErrConfigUnavailable, err)
	}

	out := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v, ok := secret.Data[name]
		str, isStr := v.(string)
		if !ok || !isStr || str == "" {
			missing = append(missing, name)
			continue
		}
		out[name] = str
	}
	if len(missing) > 0 {
		return nil, missingError(missing)
	}
	return out, nil
}
