package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BX-Coding/scratch-storage/interfaces"
)

// FileSource implements an asset source using the local file system. Assets
// are stored flat under the base directory using their object key as the
// file name, so a directory of downloaded assets works as-is.
type FileSource struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileSource creates a file asset source using the specified base directory,
// creating it if it doesn't exist.
func NewFileSource(baseDir string, log *slog.Logger) (*FileSource, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileSource{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Get retrieves an asset payload by its object key.
// Returns ErrAssetNotFound if the file doesn't exist.
func (s *FileSource) Get(ctx context.Context, id interfaces.AssetID, format interfaces.DataFormat) ([]byte, error) {
	filePath := s.getFilePath(id, format)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	s.log.Debug("Fetched asset from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Create writes a payload under a new object key, deriving the id from the
// payload when the request carries none.
func (s *FileSource) Create(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	id := req.ID
	if id.Empty() {
		id = interfaces.ComputeAssetID(req.Data)
	}

	if err := s.put(id, req.Format, req.Data); err != nil {
		return nil, err
	}
	return &interfaces.StoreResult{ID: id, Status: "created"}, nil
}

// Update overwrites the payload under an existing object key.
func (s *FileSource) Update(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	if req.ID.Empty() {
		return nil, fmt.Errorf("update requires an asset id")
	}

	if err := s.put(req.ID, req.Format, req.Data); err != nil {
		return nil, err
	}
	return &interfaces.StoreResult{ID: req.ID, Status: "updated"}, nil
}

func (s *FileSource) put(id interfaces.AssetID, format interfaces.DataFormat, data []byte) error {
	filePath := s.getFilePath(id, format)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	s.log.Debug("Stored asset in file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return nil
}

// Capabilities reports full read/write support.
func (s *FileSource) Capabilities() interfaces.SourceCapabilities {
	return interfaces.CapReadWrite
}

// Available checks if the file source is accessible by verifying the base directory exists.
func (s *FileSource) Available(ctx context.Context) bool {
	_, err := os.Stat(s.baseDir)
	if err != nil {
		s.log.Debug("File source unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this source.
func (s *FileSource) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.baseDir))
}

// LocationURI returns the URI that identifies this source.
func (s *FileSource) LocationURI() string {
	return s.locationURI
}

// getFilePath generates a file path for an asset id and format.
func (s *FileSource) getFilePath(id interfaces.AssetID, format interfaces.DataFormat) string {
	return filepath.Join(s.baseDir, objectKey(id, format))
}
