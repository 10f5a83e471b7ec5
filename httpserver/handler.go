package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BX-Coding/scratch-storage/interfaces"
	"github.com/BX-Coding/scratch-storage/metrics"
	"github.com/BX-Coding/scratch-storage/resolver"
)

const (
	// maxBodySize is the maximum allowed asset payload size (10MB).
	maxBodySize = 10 * 1024 * 1024

	// immutableCacheControl is served for content-named asset types. Their id
	// pins the payload, so a response for a given id never goes stale.
	immutableCacheControl = "public, max-age=31536000, immutable"
)

// Handler processes HTTP requests for the asset gateway. It delegates
// resolution and storage to the resolver and maps its error kinds onto HTTP
// status codes.
type Handler struct {
	resolver *resolver.Resolver
	metrics  *metrics.MetricsServer
	log      *slog.Logger
}

// NewHandler creates an HTTP request handler serving the given resolver. The
// metrics server may be nil, in which case no metrics are recorded.
func NewHandler(rsv *resolver.Resolver, metricsSrv *metrics.MetricsServer, log *slog.Logger) *Handler {
	return &Handler{
		resolver: rsv,
		metrics:  metricsSrv,
		log:      log,
	}
}

// HandleGetAsset serves one asset payload.
//
// URL format: GET /assets/{assetType}/{md5ext}
//
// The md5ext path segment is "{assetId}.{dataFormat}"; without an extension
// the type's runtime format is assumed. Responds 200 with the payload, 404
// when every source cleanly reports absence, and 502 when sources failed.
func (h *Handler) HandleGetAsset(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	assetType, err := interfaces.ParseAssetType(chi.URLParam(r, "assetType"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, format, err := interfaces.ParseAssetRef(assetType, chi.URLParam(r, "md5ext"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	asset, err := h.resolver.Load(r.Context(), assetType, id, format)
	if err != nil {
		h.recordLoad(assetType, metrics.OutcomeError, start)
		h.log.Error("Asset load failed",
			slog.String("asset_type", assetType.String()),
			slog.String("asset_id", id.String()),
			"err", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	if asset == nil {
		h.recordLoad(assetType, metrics.OutcomeNotFound, start)
		http.Error(w, "asset not found", http.StatusNotFound)
		return
	}

	h.recordLoad(assetType, metrics.OutcomeOK, start)

	w.Header().Set("Content-Type", asset.Format.ContentType())
	if assetType.Immutable() {
		w.Header().Set("Cache-Control", immutableCacheControl)
		w.Header().Set("ETag", `"`+asset.ID.String()+`"`)
	}
	w.Write(asset.Data())
}

// HandleCreateAsset stores a new asset.
//
// URL format: POST /assets/{assetType}[?format=wav]
//
// The request body is the raw payload. The format defaults to the type's
// runtime format. Responds 200 with the backend write metadata as JSON.
func (h *Handler) HandleCreateAsset(w http.ResponseWriter, r *http.Request) {
	assetType, err := interfaces.ParseAssetType(chi.URLParam(r, "assetType"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	format := assetType.RuntimeFormat()
	if formatParam := r.URL.Query().Get("format"); formatParam != "" {
		format, err = interfaces.ParseDataFormat(formatParam)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	h.handleStore(w, r, assetType, format, "")
}

// HandleUpdateAsset replaces the payload of an existing asset.
//
// URL format: PUT /assets/{assetType}/{md5ext}
func (h *Handler) HandleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	assetType, err := interfaces.ParseAssetType(chi.URLParam(r, "assetType"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, format, err := interfaces.ParseAssetRef(assetType, chi.URLParam(r, "md5ext"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if id.Empty() {
		http.Error(w, "missing asset id", http.StatusBadRequest)
		return
	}

	h.handleStore(w, r, assetType, format, id)
}

// handleStore reads the payload and routes the write through the resolver.
// This is the shared core of HandleCreateAsset and HandleUpdateAsset.
func (h *Handler) handleStore(w http.ResponseWriter, r *http.Request, assetType interfaces.AssetType, format interfaces.DataFormat, id interfaces.AssetID) {
	start := time.Now()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.log.Error("Failed to read request body", "err", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty request body", http.StatusBadRequest)
		return
	}

	result, err := h.resolver.Store(r.Context(), assetType, format, data, id)
	if err != nil {
		h.recordStore(assetType, metrics.OutcomeError, start)
		h.log.Error("Asset store failed",
			slog.String("asset_type", assetType.String()),
			slog.String("asset_id", id.String()),
			"err", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	h.recordStore(assetType, metrics.OutcomeOK, start)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) recordLoad(assetType interfaces.AssetType, outcome string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordLoad(assetType.String(), outcome, time.Since(start))
	}
}

func (h *Handler) recordStore(assetType interfaces.AssetType, outcome string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordStore(assetType.String(), outcome, time.Since(start))
	}
}

// statusForError maps resolver error kinds onto HTTP status codes. Upstream
// source failures surface as 502, unroutable writes as 501.
func statusForError(err error) int {
	var agg *interfaces.AggregateError
	switch {
	case errors.Is(err, interfaces.ErrNoAppropriateStore),
		errors.Is(err, interfaces.ErrUnsupportedAssetType):
		return http.StatusNotImplemented
	case errors.As(err, &agg):
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}
