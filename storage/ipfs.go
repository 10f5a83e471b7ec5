package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/BX-Coding/scratch-storage/interfaces"
)

// IPFSSource implements a read-only asset source over an IPFS node. Assets
// are resolved by name under a pinned directory root (/ipfs/<dirCID> or
// /ipns/<name>), so the usual "{id}.{format}" keys work unchanged. Writes are
// not supported: adding a file would mint a new directory CID instead of
// updating the configured root.
type IPFSSource struct {
	shell       *shell.Shell
	host        string
	port        string
	root        string
	log         *slog.Logger
	locationURI string
}

// NewIPFSSource creates an IPFS asset source reading from the given root path.
func NewIPFSSource(host, port, root string, log *slog.Logger) (*IPFSSource, error) {
	if root == "" {
		return nil, fmt.Errorf("ipfs source requires a directory root path")
	}

	apiURL := fmt.Sprintf("%s:%s", host, port)
	uri := fmt.Sprintf("ipfs://%s%s", apiURL, root)

	return &IPFSSource{
		shell:       shell.NewShell(apiURL),
		host:        host,
		port:        port,
		root:        strings.TrimSuffix(root, "/"),
		log:         log,
		locationURI: uri,
	}, nil
}

// Get retrieves an asset payload by name under the directory root.
// Returns ErrAssetNotFound if the root has no entry with that name, or
// ErrBackendUnavailable if the IPFS node is not accessible.
func (s *IPFSSource) Get(ctx context.Context, id interfaces.AssetID, format interfaces.DataFormat) ([]byte, error) {
	start := time.Now()
	ipfsPath := path.Join(s.root, objectKey(id, format))

	if !s.shell.IsUp() {
		s.log.Warn("IPFS node unavailable",
			slog.String("host", s.host),
			slog.String("port", s.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := s.shell.Cat(ipfsPath)
	if err != nil {
		if strings.Contains(err.Error(), "no link named") {
			s.log.Debug("Asset not found in IPFS",
				slog.String("path", ipfsPath),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrAssetNotFound
		}

		s.log.Error("Failed to fetch asset from IPFS",
			slog.String("path", ipfsPath),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to fetch asset from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		s.log.Error("Failed to read asset from IPFS",
			slog.String("path", ipfsPath),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to read asset from IPFS: %w", err)
	}

	s.log.Debug("Fetched asset from IPFS",
		slog.String("path", ipfsPath),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Create is not supported by this read-only source.
func (s *IPFSSource) Create(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	return nil, interfaces.ErrReadOnlySource
}

// Update is not supported by this read-only source.
func (s *IPFSSource) Update(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	return nil, interfaces.ErrReadOnlySource
}

// Capabilities reports read-only access.
func (s *IPFSSource) Capabilities() interfaces.SourceCapabilities {
	return interfaces.CapGet
}

// Available checks if the IPFS node is accessible.
func (s *IPFSSource) Available(ctx context.Context) bool {
	return s.shell.IsUp()
}

// Name returns a unique identifier for this source.
func (s *IPFSSource) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", s.host, s.port)
}

// LocationURI returns the URI that identifies this source.
func (s *IPFSSource) LocationURI() string {
	return s.locationURI
}
