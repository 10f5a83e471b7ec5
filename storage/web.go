package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BX-Coding/scratch-storage/interfaces"
	"github.com/BX-Coding/scratch-storage/transport"
)

// WebSource implements an asset source over an HTTP asset store. Reads GET
// "{base}/{id}.{format}"; creates POST to the base URL and updates PUT the
// object key. A request decorator attaches credentials without the source
// knowing about auth schemes.
type WebSource struct {
	baseURL     string
	caps        interfaces.SourceCapabilities
	client      *transport.Client
	decorate    transport.RequestDecorator
	log         *slog.Logger
	locationURI string
}

// webStoreResponse is the write metadata shape asset stores reply with. The
// content-name field carries "{id}.{format}" on servers that name objects
// instead of returning a bare id.
type webStoreResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ContentName string `json:"content-name"`
}

// NewWebSource creates an asset source for one HTTP asset store. The
// decorator may be nil for stores that need no credentials.
func NewWebSource(baseURL string, caps interfaces.SourceCapabilities, client *transport.Client, decorate transport.RequestDecorator, log *slog.Logger) *WebSource {
	return &WebSource{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		caps:        caps,
		client:      client,
		decorate:    decorate,
		log:         log,
		locationURI: baseURL,
	}
}

// Get retrieves a payload by object key.
// The transport translates 404 into ErrAssetNotFound.
func (s *WebSource) Get(ctx context.Context, id interfaces.AssetID, format interfaces.DataFormat) ([]byte, error) {
	start := time.Now()
	key := objectKey(id, format)

	req := transport.Request{URL: fmt.Sprintf("%s/%s", s.baseURL, key)}
	if s.decorate != nil {
		s.decorate(&req)
	}

	data, err := s.client.FetchBytes(ctx, req)
	if err != nil {
		if errors.Is(err, interfaces.ErrAssetNotFound) {
			s.log.Debug("Asset not found in web store",
				slog.String("url", req.URL),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrAssetNotFound
		}

		s.log.Error("Failed to fetch asset from web store",
			slog.String("url", req.URL),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to fetch asset from web store: %w", err)
	}

	s.log.Debug("Fetched asset from web store",
		slog.String("url", req.URL),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Create posts the payload to the store root and returns the backend write
// metadata with the assigned id.
func (s *WebSource) Create(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	if !s.caps.CanCreate() {
		return nil, interfaces.ErrReadOnlySource
	}
	return s.write(ctx, http.MethodPost, s.baseURL+"/", req)
}

// Update puts the payload under its existing object key.
func (s *WebSource) Update(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	if !s.caps.CanUpdate() {
		return nil, interfaces.ErrReadOnlySource
	}
	if req.ID.Empty() {
		return nil, fmt.Errorf("update requires an asset id")
	}
	return s.write(ctx, http.MethodPut, fmt.Sprintf("%s/%s", s.baseURL, objectKey(req.ID, req.Format)), req)
}

// write issues one store call and decodes the response metadata. The raw
// response body is preserved verbatim on the result.
func (s *WebSource) write(ctx context.Context, method, url string, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	start := time.Now()

	treq := transport.Request{
		URL:    url,
		Method: method,
		Header: http.Header{"Content-Type": []string{req.Format.ContentType()}},
		Body:   req.Data,
	}
	if s.decorate != nil {
		s.decorate(&treq)
	}

	raw, err := s.client.FetchBytes(ctx, treq)
	if err != nil {
		s.log.Error("Failed to store asset in web store",
			slog.String("url", url),
			slog.String("method", method),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to store asset in web store: %w", err)
	}

	result := &interfaces.StoreResult{ID: req.ID, Raw: raw}
	var parsed webStoreResponse
	if jsonErr := json.Unmarshal(raw, &parsed); jsonErr == nil {
		result.Status = parsed.Status
		switch {
		case parsed.ID != "":
			result.ID = interfaces.AssetID(parsed.ID)
		case parsed.ContentName != "":
			name := parsed.ContentName
			if dot := strings.LastIndexByte(name, '.'); dot > 0 {
				name = name[:dot]
			}
			result.ID = interfaces.AssetID(name)
		}
	}
	if result.ID.Empty() {
		result.ID = interfaces.ComputeAssetID(req.Data)
	}

	s.log.Info("Stored asset in web store",
		slog.String("url", url),
		slog.String("method", method),
		slog.String("asset_id", result.ID.String()),
		slog.Int("size", len(req.Data)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// Capabilities reports the configured capability set.
func (s *WebSource) Capabilities() interfaces.SourceCapabilities {
	return s.caps
}

// Available checks if the store host responds at all. Any HTTP status counts
// as reachable; only transport failure marks the source unavailable.
func (s *WebSource) Available(ctx context.Context) bool {
	req := transport.Request{URL: s.baseURL + "/", Method: http.MethodHead}
	if s.decorate != nil {
		s.decorate(&req)
	}

	resp, err := s.client.Do(ctx, req)
	if err == nil {
		resp.Body.Close()
		return true
	}
	if errors.Is(err, interfaces.ErrAssetNotFound) {
		return true
	}
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		return true
	}

	s.log.Debug("Web store unavailable", slog.String("base", s.baseURL), "err", err)
	return false
}

// Name returns a unique identifier for this source.
func (s *WebSource) Name() string {
	if u, err := url.Parse(s.baseURL); err == nil && u.Host != "" {
		return fmt.Sprintf("web-%s", u.Host)
	}
	return "web-store"
}

// LocationURI returns the URI that identifies this source.
func (s *WebSource) LocationURI() string {
	return s.locationURI
}
