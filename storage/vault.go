package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

// VaultBackend stores attachments in a HashiCorp Vault KV v2 mount,
// base64-encoded under one secret per content ID.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	prefixes    map[interfaces.ContentType]string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a Vault storage backend.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount (e.g. "secret")
//   - dataPath: path prefix within the mount (e.g. "ledger/attachments")
//   - token: Vault token; falls back to the VAULT_TOKEN environment variable
//     when empty
func NewVaultBackend(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultBackend, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	return &VaultBackend{
		client:    client,
		mountPath: mountPath,
		dataPath:  dataPath,
		prefixes: map[interfaces.ContentType]string{
			interfaces.TranscriptType: "transcripts",
			interfaces.AttendanceType: "attendance",
		},
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath),
	}, nil
}

// Fetch retrieves an attachment from Vault by content ID and type.
func (b *VaultBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	secretPath := b.getSecretPath(id, contentType)

	secret, err := b.client.KVv2(b.mountPath).Get(ctx, secretPath)
	if err != nil {
		if errors.Is(err, api.ErrSecretNotFound) {
			return nil, interfaces.ErrContentNotFound
		}
		b.log.Error("Failed to read secret from Vault", slog.String("path", secretPath), "err", err)
		return nil, fmt.Errorf("failed to read from Vault: %w", err)
	}

	encoded, ok := secret.Data["content"].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected secret layout at %s: missing content field", secretPath)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content at %s: %w", secretPath, err)
	}

	b.log.Debug("Fetched attachment from Vault",
		slog.String("path", secretPath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store saves an attachment to Vault and returns its content ID, the
// SHA-256 of the data.
func (b *VaultBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	id := interfaces.ComputeID(data)
	secretPath := b.getSecretPath(id, contentType)

	_, err := b.client.KVv2(b.mountPath).Put(ctx, secretPath, map[string]interface{}{
		"content": base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return id, fmt.Errorf("failed to write to Vault: %w", err)
	}

	b.log.Debug("Stored attachment in Vault",
		slog.String("path", secretPath),
		slog.String("contentID", id.String()))

	return id, nil
}

// Available checks whether the Vault server responds to a health query.
func (b *VaultBackend) Available(ctx context.Context) bool {
	health, err := b.client.Sys().HealthWithContext(ctx)
	if err != nil {
		b.log.Warn("Vault backend unavailable", "err", err)
		return false
	}
	return health.Initialized && !health.Sealed
}

// Name returns a unique identifier for this storage backend.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s", b.mountPath)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}

func (b *VaultBackend) getSecretPath(id interfaces.ContentID, contentType interfaces.ContentType) string {
	return path.Join(b.dataPath, b.prefixes[contentType], id.String())
}
