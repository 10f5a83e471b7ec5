package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/BX-Coding/scratch-storage/interfaces"
)

// MemorySource implements an asset source backed by an in-process map. It is
// used for tests and as the scratch space behind mem:// locations.
type MemorySource struct {
	name        string
	mu          sync.RWMutex
	objects     map[string][]byte
	log         *slog.Logger
	locationURI string
}

// NewMemorySource creates an empty in-memory source. The name distinguishes
// multiple instances in logs.
func NewMemorySource(name string, log *slog.Logger) *MemorySource {
	if name == "" {
		name = "default"
	}
	return &MemorySource{
		name:        name,
		objects:     make(map[string][]byte),
		log:         log,
		locationURI: fmt.Sprintf("mem://%s", name),
	}
}

// Get retrieves a payload by its object key.
// Returns ErrAssetNotFound if the key was never stored.
func (s *MemorySource) Get(ctx context.Context, id interfaces.AssetID, format interfaces.DataFormat) ([]byte, error) {
	key := objectKey(id, format)

	s.mu.RLock()
	data, ok := s.objects[key]
	s.mu.RUnlock()

	if !ok {
		return nil, interfaces.ErrAssetNotFound
	}

	s.log.Debug("Fetched asset from memory",
		slog.String("source", s.name),
		slog.String("key", key),
		slog.Int("size", len(data)))

	return data, nil
}

// Create stores a payload under a new id. Content-named asset types derive
// the id from the payload; project assets get a generated id.
func (s *MemorySource) Create(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	id := req.ID
	if id.Empty() {
		if req.Type == interfaces.AssetTypeProject {
			id = interfaces.AssetID(uuid.NewString())
		} else {
			id = interfaces.ComputeAssetID(req.Data)
		}
	}

	s.put(id, req.Format, req.Data)
	return &interfaces.StoreResult{ID: id, Status: "created"}, nil
}

// Update overwrites the payload under an existing id.
func (s *MemorySource) Update(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	if req.ID.Empty() {
		return nil, fmt.Errorf("update requires an asset id")
	}

	s.put(req.ID, req.Format, req.Data)
	return &interfaces.StoreResult{ID: req.ID, Status: "updated"}, nil
}

func (s *MemorySource) put(id interfaces.AssetID, format interfaces.DataFormat, data []byte) {
	key := objectKey(id, format)

	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()

	s.log.Debug("Stored asset in memory",
		slog.String("source", s.name),
		slog.String("key", key),
		slog.Int("size", len(data)))
}

// Capabilities reports full read/write support.
func (s *MemorySource) Capabilities() interfaces.SourceCapabilities {
	return interfaces.CapReadWrite
}

// Available always reports true for in-process storage.
func (s *MemorySource) Available(ctx context.Context) bool {
	return true
}

// Name returns a unique identifier for this source.
func (s *MemorySource) Name() string {
	return fmt.Sprintf("mem-%s", s.name)
}

// LocationURI returns the URI that identifies this source.
func (s *MemorySource) LocationURI() string {
	return s.locationURI
}

// Len reports how many objects the source holds.
func (s *MemorySource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// objectKey builds the "{id}.{format}" key every source kind shares.
func objectKey(id interfaces.AssetID, format interfaces.DataFormat) string {
	return fmt.Sprintf("%s.%s", id, format)
}
