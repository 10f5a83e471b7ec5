package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/BX-Coding/scratch-storage/interfaces"
)

// VaultSource implements an asset source using HashiCorp Vault's KV v2
// secrets engine. It serves restricted assets that must not live on public
// object storage. Payloads are base64-encoded into the secret's content
// field since Vault stores JSON, not raw bytes.
type VaultSource struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultSource creates a Vault asset source.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: path within the mount (e.g. "assets")
//   - token: Vault token; empty falls back to the VAULT_TOKEN environment variable
//   - log: structured logger for operational insights
func NewVaultSource(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultSource, error) {
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

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultSource{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://"), mountPath, dataPath),
	}, nil
}

// Get retrieves an asset payload from Vault by its object key.
// Returns ErrAssetNotFound when the path has no secret.
func (s *VaultSource) Get(ctx context.Context, id interfaces.AssetID, format interfaces.DataFormat) ([]byte, error) {
	start := time.Now()
	key := objectKey(id, format)
	secretPath := s.secretPath(key)

	secret, err := s.client.Logical().ReadWithContext(ctx, secretPath)
	if err != nil {
		s.log.Error("Failed to read from Vault",
			slog.String("path", secretPath),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		s.log.Debug("Asset not found in Vault",
			slog.String("path", secretPath))
		return nil, interfaces.ErrAssetNotFound
	}

	// KV v2 wraps the stored fields in a nested data map
	inner, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		s.log.Error("Invalid data format in Vault response",
			slog.String("path", secretPath))
		return nil, fmt.Errorf("invalid data format in Vault response")
	}

	content, ok := inner["content"].(string)
	if !ok {
		s.log.Error("Content key not found in Vault data",
			slog.String("path", secretPath))
		return nil, fmt.Errorf("content key not found in Vault data")
	}

	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Vault content: %w", err)
	}

	s.log.Info("Successfully fetched asset from Vault",
		slog.String("key", key),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Create stores a payload under a new object key, deriving the id from the
// payload when the request carries none.
func (s *VaultSource) Create(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	id := req.ID
	if id.Empty() {
		id = interfaces.ComputeAssetID(req.Data)
	}

	if err := s.put(ctx, id, req.Format, req.Data); err != nil {
		return nil, err
	}
	return &interfaces.StoreResult{ID: id, Status: "created"}, nil
}

// Update overwrites the payload under an existing object key. KV v2 keeps
// prior versions according to the mount's version retention settings.
func (s *VaultSource) Update(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	if req.ID.Empty() {
		return nil, fmt.Errorf("update requires an asset id")
	}

	if err := s.put(ctx, req.ID, req.Format, req.Data); err != nil {
		return nil, err
	}
	return &interfaces.StoreResult{ID: req.ID, Status: "updated"}, nil
}

func (s *VaultSource) put(ctx context.Context, id interfaces.AssetID, format interfaces.DataFormat, data []byte) error {
	start := time.Now()
	key := objectKey(id, format)
	secretPath := s.secretPath(key)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"content":      base64.StdEncoding.EncodeToString(data),
			"content_type": format.ContentType(),
		},
	}

	if _, err := s.client.Logical().WriteWithContext(ctx, secretPath, secretData); err != nil {
		s.log.Error("Failed to write to Vault",
			slog.String("path", secretPath),
			"err", err)
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	s.log.Info("Successfully stored asset in Vault",
		slog.String("key", key),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// Capabilities reports full read/write support.
func (s *VaultSource) Capabilities() interfaces.SourceCapabilities {
	return interfaces.CapReadWrite
}

// Available checks if the Vault source is accessible.
// It uses the health endpoint to verify that Vault is initialized and unsealed.
func (s *VaultSource) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := s.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		s.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		s.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this source.
func (s *VaultSource) Name() string {
	return fmt.Sprintf("vault-%s-%s", s.mountPath, s.dataPath)
}

// LocationURI returns the URI that identifies this source.
func (s *VaultSource) LocationURI() string {
	return s.locationURI
}

// secretPath builds the KV v2 data path for an object key.
func (s *VaultSource) secretPath(key string) string {
	return fmt.Sprintf("%s/data/%s/%s", s.mountPath, s.dataPath, key)
}
