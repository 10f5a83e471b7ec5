package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BX-Coding/scratch-storage/interfaces"
)

// storeRecord associates one registered source with the asset types it is
// consulted for. Records are never mutated after registration.
type storeRecord struct {
	types  map[interfaces.AssetType]bool
	source interfaces.AssetSource
}

func (r storeRecord) covers(assetType interfaces.AssetType) bool {
	return r.types[assetType]
}

// WebHelper resolves assets against registered remote sources. Loads walk the
// matching sources in registration order with lazy fallback; stores pick the
// single first source whose declared types and capabilities match the
// request.
//
// Project assets are deliberately not served: project loading needs request
// shapes this helper does not speak yet, so both operations short-circuit
// before any network I/O instead of failing confusingly downstream.
type WebHelper struct {
	mu      sync.RWMutex
	records []storeRecord
	log     *slog.Logger
}

// NewWebHelper creates a helper with no registered sources. Until a source is
// registered the helper reports CanProvide false for every type, which lets
// the resolution chain skip it without I/O.
func NewWebHelper(log *slog.Logger) *WebHelper {
	return &WebHelper{log: log}
}

// AddStore registers a source for a set of asset types. Sources are not
// deduplicated; a type registered twice simply gains an additional fallback
// candidate, tried in registration order.
func (h *WebHelper) AddStore(types []interfaces.AssetType, source interfaces.AssetSource) {
	record := storeRecord{
		types:  make(map[interfaces.AssetType]bool, len(types)),
		source: source,
	}
	for _, t := range types {
		record.types[t] = true
	}

	h.mu.Lock()
	h.records = append(h.records, record)
	h.mu.Unlock()

	h.log.Debug("Registered asset store",
		slog.String("source", source.Name()),
		slog.String("capabilities", source.Capabilities().String()),
		slog.Int("types", len(types)))
}

// CanProvide reports whether any registered source covers the type. Project
// is never provided regardless of registrations.
func (h *WebHelper) CanProvide(assetType interfaces.AssetType) bool {
	if assetType == interfaces.AssetTypeProject {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, record := range h.records {
		if record.covers(assetType) {
			return true
		}
	}
	return false
}

// Load walks the sources registered for the type in registration order. A
// source returning the payload wins; a definitive not-found advances
// silently; any other failure is recorded and the walk advances. Exhaustion
// returns the recorded failures as one AggregateError, or (nil, nil) when
// every source cleanly reported absence.
func (h *WebHelper) Load(ctx context.Context, assetType interfaces.AssetType, id interfaces.AssetID, format interfaces.DataFormat) (*interfaces.Asset, error) {
	if assetType == interfaces.AssetTypeProject {
		h.log.Warn("Project loading is not supported by remote sources",
			slog.String("asset_id", id.String()))
		return nil, fmt.Errorf("%w: %s", interfaces.ErrUnsupportedAssetType, assetType)
	}

	start := time.Now()
	asset := interfaces.NewAsset(assetType, id, format)
	var errs []error

	for _, record := range h.candidates(assetType) {
		source := record.source

		data, err := source.Get(ctx, id, format)
		if err != nil {
			if errors.Is(err, interfaces.ErrAssetNotFound) {
				h.log.Debug("Asset not found in source",
					slog.String("source", source.Name()),
					slog.String("asset", asset.Ref()))
				continue
			}

			errs = append(errs, fmt.Errorf("%s: %w", source.Name(), err))
			h.log.Debug("Failed to load asset from source",
				slog.String("source", source.Name()),
				slog.String("asset", asset.Ref()),
				"err", err)
			continue
		}

		if err := asset.SetData(data); err != nil {
			return nil, err
		}
		h.log.Info("Successfully loaded asset",
			slog.String("source", source.Name()),
			slog.String("asset", asset.Ref()),
			slog.Int("size", asset.Size()),
			slog.Duration("duration", time.Since(start)))
		return asset, nil
	}

	if len(errs) > 0 {
		h.log.Error("All sources failed to load asset",
			slog.String("asset", asset.Ref()),
			slog.Int("failed_sources", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return nil, &interfaces.AggregateError{Op: "load", Ref: asset.Ref(), Errs: errs}
	}

	return nil, nil
}

// Store selects the first source in registration order whose declared types
// cover the request and whose capabilities match it: create for requests
// without an id, update otherwise. With no matching source it fails with
// ErrNoAppropriateStore before any network call. Exactly one write is issued
// and its metadata returned verbatim.
func (h *WebHelper) Store(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	if req.Type == interfaces.AssetTypeProject {
		h.log.Warn("Project storing is not supported by remote sources")
		return nil, fmt.Errorf("%w: %s", interfaces.ErrUnsupportedAssetType, req.Type)
	}

	create := req.ID.Empty()
	source := h.selectStore(req.Type, create)
	if source == nil {
		h.log.Error("No appropriate store for request",
			slog.String("asset_type", req.Type.String()),
			slog.Bool("create", create))
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNoAppropriateStore, req.Type)
	}

	start := time.Now()
	var result *interfaces.StoreResult
	var err error
	if create {
		result, err = source.Create(ctx, req)
	} else {
		result, err = source.Update(ctx, req)
	}
	if err != nil {
		h.log.Error("Failed to store asset",
			slog.String("source", source.Name()),
			slog.String("asset", req.Ref()),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("%s: %w", source.Name(), err)
	}

	h.log.Info("Successfully stored asset",
		slog.String("source", source.Name()),
		slog.String("asset_id", result.ID.String()),
		slog.Int("size", len(req.Data)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// candidates snapshots the records covering a type, in registration order.
func (h *WebHelper) candidates(assetType interfaces.AssetType) []storeRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var matched []storeRecord
	for _, record := range h.records {
		if record.covers(assetType) {
			matched = append(matched, record)
		}
	}
	return matched
}

// selectStore picks the first record covering the type with the required
// write capability.
func (h *WebHelper) selectStore(assetType interfaces.AssetType, create bool) interfaces.AssetSource {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, record := range h.records {
		if !record.covers(assetType) {
			continue
		}
		caps := record.source.Capabilities()
		if create && caps.CanCreate() {
			return record.source
		}
		if !create && caps.CanUpdate() {
			return record.source
		}
	}
	return nil
}

// Sources lists the registered sources in registration order, deduplicated.
// Used by health checks to probe backend availability.
func (h *WebHelper) Sources() []interfaces.AssetSource {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[interfaces.AssetSource]bool, len(h.records))
	sources := make([]interfaces.AssetSource, 0, len(h.records))
	for _, record := range h.records {
		if seen[record.source] {
			continue
		}
		seen[record.source] = true
		sources = append(sources, record.source)
	}
	return sources
}
