package resolver

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/BX-Coding/scratch-storage/interfaces"
	"github.com/BX-Coding/scratch-storage/storage"
	"github.com/BX-Coding/scratch-storage/transport"
)

// Default priorities for the two helpers every resolver starts with. The
// built-in cache outranks everything so cached assets never hit the network;
// the web helper sits below zero so application helpers registered with the
// default priority land between them.
const (
	DefaultBuiltinPriority = 100
	DefaultWebPriority     = -100
)

// HelperEntry pairs a helper with its priority in the resolution chain.
type HelperEntry struct {
	Helper   interfaces.Helper
	Priority int
}

// Resolver walks a priority-ordered helper chain to load and store assets.
// Every resolver starts with a BuiltinHelper (in-process cache) and a
// WebHelper (remote sources); more helpers can be registered with AddHelper.
type Resolver struct {
	log     *slog.Logger
	client  *transport.Client
	builtin *BuiltinHelper
	web     *WebHelper

	mu      sync.RWMutex
	helpers []HelperEntry
}

// New creates a resolver with the built-in cache and web helpers registered.
// The cache starts empty; pass DefaultAssets to the built-in helper's
// RegisterDefaults when the default set is wanted.
func New(log *slog.Logger) *Resolver {
	r := &Resolver{
		log:     log,
		client:  transport.NewClient(log),
		builtin: NewBuiltinHelper(log),
		web:     NewWebHelper(log),
	}
	r.AddHelper(r.builtin, DefaultBuiltinPriority)
	r.AddHelper(r.web, DefaultWebPriority)
	return r
}

// Builtin returns the cache helper for direct cache operations.
func (r *Resolver) Builtin() *BuiltinHelper {
	return r.builtin
}

// Web returns the remote helper for store registration.
func (r *Resolver) Web() *WebHelper {
	return r.web
}

// AddHelper registers a helper. The chain is rebuilt as a new snapshot sorted
// by descending priority; equal priorities keep registration order. An
// in-flight load keeps walking the snapshot it started with.
func (r *Resolver) AddHelper(helper interfaces.Helper, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]HelperEntry, len(r.helpers), len(r.helpers)+1)
	copy(next, r.helpers)
	next = append(next, HelperEntry{Helper: helper, Priority: priority})
	slices.SortStableFunc(next, func(a, b HelperEntry) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	r.helpers = next
}

// AddStore registers a remote source with the web helper.
func (r *Resolver) AddStore(types []interfaces.AssetType, source interfaces.AssetSource) {
	r.web.AddStore(types, source)
}

// AddWebStore registers an HTTP asset store by base URL. The decorator may be
// nil; pass one to attach credentials to every request.
func (r *Resolver) AddWebStore(types []interfaces.AssetType, baseURL string, caps interfaces.SourceCapabilities, decorate transport.RequestDecorator) {
	source := storage.NewWebSource(baseURL, caps, r.client, decorate, r.log)
	r.web.AddStore(types, source)
}

// Load resolves an asset by walking helpers in descending priority order. A
// helper that cannot provide the type is skipped without I/O. The first
// helper producing an asset wins and any failures recorded from earlier
// helpers are discarded. A helper reporting a clean miss advances the walk
// silently; a helper failure is recorded and the walk advances. When the
// chain is exhausted, recorded failures surface as one *AggregateError in
// attempt order; with none the result is (nil, nil).
//
// An asset produced by any helper other than the built-in cache is promoted
// into the cache before returning. Promotion is best-effort: a promotion
// failure is logged and never fails the load.
func (r *Resolver) Load(ctx context.Context, assetType interfaces.AssetType, id interfaces.AssetID, format interfaces.DataFormat) (*interfaces.Asset, error) {
	start := time.Now()
	if format == "" {
		format = assetType.RuntimeFormat()
	}
	ref := fmt.Sprintf("%s.%s", id, format)

	var errs []error
	for _, entry := range r.snapshot() {
		if !entry.Helper.CanProvide(assetType) {
			r.log.Debug("Helper skipped for asset type",
				slog.Int("priority", entry.Priority),
				slog.String("asset_type", assetType.String()))
			continue
		}

		asset, err := entry.Helper.Load(ctx, assetType, id, format)
		if err != nil {
			errs = append(errs, err)
			r.log.Debug("Helper failed to load asset",
				slog.Int("priority", entry.Priority),
				slog.String("asset", ref),
				"err", err)
			continue
		}
		if asset == nil {
			r.log.Debug("Asset not found in helper",
				slog.Int("priority", entry.Priority),
				slog.String("asset", ref))
			continue
		}

		if entry.Helper != interfaces.Helper(r.builtin) {
			if cacheErr := r.builtin.CacheAsset(asset); cacheErr != nil {
				r.log.Warn("Failed to promote asset into cache",
					slog.String("asset", ref),
					"err", cacheErr)
			}
		}

		r.log.Info("Successfully resolved asset",
			slog.Int("priority", entry.Priority),
			slog.String("asset", ref),
			slog.Int("size", asset.Size()),
			slog.Duration("duration", time.Since(start)))
		return asset, nil
	}

	if len(errs) > 0 {
		r.log.Error("All helpers failed to load asset",
			slog.String("asset", ref),
			slog.Int("failed_helpers", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return nil, &interfaces.AggregateError{Op: "load", Ref: ref, Errs: errs}
	}

	r.log.Debug("Asset not found in any helper",
		slog.String("asset", ref),
		slog.Duration("duration", time.Since(start)))
	return nil, nil
}

// Store writes a payload through the web helper's store selection: create
// when id is empty, update otherwise. On success the written bytes are
// mirrored into the built-in cache under the id the backend confirmed, so a
// subsequent Get serves them without a network call; the mirror write is
// best-effort and never fails the store. On failure the backend error is
// returned as-is with no retry.
func (r *Resolver) Store(ctx context.Context, assetType interfaces.AssetType, format interfaces.DataFormat, data []byte, id interfaces.AssetID) (*interfaces.StoreResult, error) {
	start := time.Now()
	if format == "" {
		format = assetType.RuntimeFormat()
	}

	req := interfaces.StoreRequest{Type: assetType, Format: format, ID: id, Data: data}
	result, err := r.web.Store(ctx, req)
	if err != nil {
		return nil, err
	}

	r.builtin.Cache(assetType, format, data, result.ID)

	r.log.Info("Stored and cached asset",
		slog.String("asset_id", result.ID.String()),
		slog.String("asset_type", assetType.String()),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// Get is the synchronous cache lookup against the built-in helper only. It
// returns nil when the asset has not been resolved or stored yet.
func (r *Resolver) Get(id interfaces.AssetID) *interfaces.Asset {
	return r.builtin.Get(id)
}

// Cache inserts a payload directly into the built-in cache and returns its
// id, deriving a content id when none is given.
func (r *Resolver) Cache(assetType interfaces.AssetType, format interfaces.DataFormat, data []byte, id interfaces.AssetID) interfaces.AssetID {
	if format == "" {
		format = assetType.RuntimeFormat()
	}
	return r.builtin.Cache(assetType, format, data, id)
}

// snapshot returns the current helper chain. The returned slice is never
// mutated after publication.
func (r *Resolver) snapshot() []HelperEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.helpers
}
