package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BX-Coding/scratch-storage/interfaces"
	"github.com/BX-Coding/scratch-storage/resolver"
	"github.com/BX-Coding/scratch-storage/storage"
)

// failingSource simulates an unreachable backend.
type failingSource struct {
	err error
}

func (s *failingSource) Get(ctx context.Context, id interfaces.AssetID, format interfaces.DataFormat) ([]byte, error) {
	return nil, s.err
}

func (s *failingSource) Create(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	return nil, s.err
}

func (s *failingSource) Update(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	return nil, s.err
}

func (s *failingSource) Capabilities() interfaces.SourceCapabilities {
	return interfaces.CapReadWrite
}

func (s *failingSource) Available(ctx context.Context) bool {
	return false
}

func (s *failingSource) Name() string {
	return "failing"
}

func (s *failingSource) LocationURI() string {
	return "mock://failing"
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestResolver builds a resolver backed by one in-memory store registered
// for all content-named types.
func newTestResolver(t *testing.T) (*resolver.Resolver, *storage.MemorySource) {
	t.Helper()
	rsv := resolver.New(testLogger())
	mem := storage.NewMemorySource("test", testLogger())
	rsv.AddStore([]interfaces.AssetType{
		interfaces.AssetTypeImageBitmap,
		interfaces.AssetTypeImageVector,
		interfaces.AssetTypeSound,
	}, mem)
	return rsv, mem
}

func newTestRouter(rsv *resolver.Resolver) http.Handler {
	handler := NewHandler(rsv, nil, testLogger())

	mux := chi.NewRouter()
	mux.Get("/assets/{assetType}/{md5ext}", handler.HandleGetAsset)
	mux.Post("/assets/{assetType}", handler.HandleCreateAsset)
	mux.Put("/assets/{assetType}/{md5ext}", handler.HandleUpdateAsset)
	return mux
}

func TestHandleGetAsset_Success(t *testing.T) {
	testData := []byte("png payload")

	rsv, mem := newTestResolver(t)
	_, err := mem.Update(context.Background(), interfaces.StoreRequest{
		Type:   interfaces.AssetTypeImageBitmap,
		Format: interfaces.FormatPNG,
		ID:     "abc123",
		Data:   testData,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/assets/ImageBitmap/abc123.png", nil)
	w := httptest.NewRecorder()
	newTestRouter(rsv).ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, immutableCacheControl, resp.Header.Get("Cache-Control"))
	assert.Equal(t, `"abc123"`, resp.Header.Get("ETag"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, testData, body)
}

func TestHandleGetAsset_NotFound(t *testing.T) {
	rsv, _ := newTestResolver(t)

	req := httptest.NewRequest(http.MethodGet, "/assets/Sound/0000000000000000000000000000dead.wav", nil)
	w := httptest.NewRecorder()
	newTestRouter(rsv).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
}

func TestHandleGetAsset_BadRequest(t *testing.T) {
	rsv, _ := newTestResolver(t)
	router := newTestRouter(rsv)

	tests := []struct {
		name string
		path string
	}{
		{name: "unknown asset type", path: "/assets/Costume/abc123.png"},
		{name: "unknown data format", path: "/assets/Sound/abc123.gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
		})
	}
}

func TestHandleGetAsset_SourceFailure(t *testing.T) {
	rsv := resolver.New(testLogger())
	rsv.AddStore([]interfaces.AssetType{interfaces.AssetTypeSound}, &failingSource{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/assets/Sound/abc123.wav", nil)
	w := httptest.NewRecorder()
	newTestRouter(rsv).ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "connection refused")
}

func TestHandleGetAsset_ServedFromCacheAfterLoad(t *testing.T) {
	testData := []byte("cached after first load")

	rsv, mem := newTestResolver(t)
	result, err := mem.Create(context.Background(), interfaces.StoreRequest{
		Type:   interfaces.AssetTypeSound,
		Format: interfaces.FormatWAV,
		Data:   testData,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/assets/Sound/"+result.ID.String()+".wav", nil)
	w := httptest.NewRecorder()
	newTestRouter(rsv).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	// The load promoted the asset into the built-in cache.
	cached := rsv.Get(result.ID)
	require.NotNil(t, cached)
	assert.Equal(t, testData, cached.Data())
}

func TestHandleCreateAsset(t *testing.T) {
	testData := []byte("new sound payload")

	rsv, mem := newTestResolver(t)

	req := httptest.NewRequest(http.MethodPost, "/assets/Sound", bytes.NewReader(testData))
	w := httptest.NewRecorder()
	newTestRouter(rsv).ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var result interfaces.StoreResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, interfaces.ComputeAssetID(testData), result.ID)

	// The write reached the backing store under the assigned id.
	data, err := mem.Get(context.Background(), result.ID, interfaces.FormatWAV)
	require.NoError(t, err)
	assert.Equal(t, testData, data)

	// The payload was mirrored into the built-in cache.
	require.NotNil(t, rsv.Get(result.ID))
}

func TestHandleCreateAsset_FormatParam(t *testing.T) {
	testData := []byte("mp3 payload")

	rsv, mem := newTestResolver(t)

	req := httptest.NewRequest(http.MethodPost, "/assets/Sound?format=mp3", bytes.NewReader(testData))
	w := httptest.NewRecorder()
	newTestRouter(rsv).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	_, err := mem.Get(context.Background(), interfaces.ComputeAssetID(testData), interfaces.FormatMP3)
	assert.NoError(t, err)
}

func TestHandleCreateAsset_EmptyBody(t *testing.T) {
	rsv, _ := newTestResolver(t)

	req := httptest.NewRequest(http.MethodPost, "/assets/Sound", nil)
	w := httptest.NewRecorder()
	newTestRouter(rsv).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestHandleCreateAsset_NoStore(t *testing.T) {
	rsv := resolver.New(testLogger())

	req := httptest.NewRequest(http.MethodPost, "/assets/Sound", bytes.NewReader([]byte("payload")))
	w := httptest.NewRecorder()
	newTestRouter(rsv).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Result().StatusCode)
}

func TestHandleCreateAsset_Project(t *testing.T) {
	rsv, _ := newTestResolver(t)

	req := httptest.NewRequest(http.MethodPost, "/assets/Project", bytes.NewReader([]byte("{}")))
	w := httptest.NewRecorder()
	newTestRouter(rsv).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Result().StatusCode)
}

func TestHandleUpdateAsset(t *testing.T) {
	testData := []byte("replacement payload")

	rsv, mem := newTestResolver(t)

	req := httptest.NewRequest(http.MethodPut, "/assets/Sound/abc123.wav", bytes.NewReader(testData))
	w := httptest.NewRecorder()
	newTestRouter(rsv).ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result interfaces.StoreResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, interfaces.AssetID("abc123"), result.ID)

	data, err := mem.Get(context.Background(), "abc123", interfaces.FormatWAV)
	require.NoError(t, err)
	assert.Equal(t, testData, data)
}
