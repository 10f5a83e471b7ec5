package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BX-Coding/scratch-storage/interfaces"
)

// MockHelper implements interfaces.Helper for testing
type MockHelper struct {
	mock.Mock
}

func (m *MockHelper) CanProvide(assetType interfaces.AssetType) bool {
	args := m.Called(assetType)
	return args.Bool(0)
}

func (m *MockHelper) Load(ctx context.Context, assetType interfaces.AssetType, id interfaces.AssetID, format interfaces.DataFormat) (*interfaces.Asset, error) {
	args := m.Called(ctx, assetType, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Asset), args.Error(1)
}

func (m *MockHelper) Store(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.StoreResult), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadPriorityOrder(t *testing.T) {
	testID := interfaces.AssetID("abc123")
	testData := []byte("payload")

	var order []string
	newHelper := func(name string, asset *interfaces.Asset, err error) *MockHelper {
		h := &MockHelper{}
		h.On("CanProvide", interfaces.AssetTypeImageBitmap).Return(true)
		h.On("Load", mock.Anything, interfaces.AssetTypeImageBitmap, testID, interfaces.FormatPNG).
			Run(func(mock.Arguments) { order = append(order, name) }).
			Return(asset, err).Maybe()
		return h
	}

	low := newHelper("low", interfaces.NewAssetWithData(interfaces.AssetTypeImageBitmap, testID, interfaces.FormatPNG, testData), nil)
	mid := newHelper("mid", nil, nil)
	high := newHelper("high", nil, nil)

	r := New(testLogger())
	r.AddHelper(low, -200)
	r.AddHelper(high, 300)
	r.AddHelper(mid, 0)

	asset, err := r.Load(context.Background(), interfaces.AssetTypeImageBitmap, testID, interfaces.FormatPNG)
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, testData, asset.Data())
	assert.Equal(t, []string{"high", "mid", "low"}, order)
}

func TestLoadShortCircuitsLowerHelpers(t *testing.T) {
	testID := interfaces.AssetID("abc123")
	winning := interfaces.NewAssetWithData(interfaces.AssetTypeSound, testID, interfaces.FormatWAV, []byte("RIFF"))

	high := &MockHelper{}
	high.On("CanProvide", interfaces.AssetTypeSound).Return(true)
	high.On("Load", mock.Anything, interfaces.AssetTypeSound, testID, interfaces.FormatWAV).Return(winning, nil)

	low := &MockHelper{}
	// Load must never be invoked on the lower helper

	r := New(testLogger())
	r.AddHelper(high, 500)
	r.AddHelper(low, 400)

	asset, err := r.Load(context.Background(), interfaces.AssetTypeSound, testID, interfaces.FormatWAV)
	require.NoError(t, err)
	assert.Equal(t, winning, asset)
	low.AssertNotCalled(t, "Load", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLoadAllNotFoundResolvesNil(t *testing.T) {
	testID := interfaces.AssetID("missing")

	h1 := &MockHelper{}
	h1.On("CanProvide", interfaces.AssetTypeImageVector).Return(true)
	h1.On("Load", mock.Anything, interfaces.AssetTypeImageVector, testID, interfaces.FormatSVG).Return(nil, nil)

	h2 := &MockHelper{}
	h2.On("CanProvide", interfaces.AssetTypeImageVector).Return(true)
	h2.On("Load", mock.Anything, interfaces.AssetTypeImageVector, testID, interfaces.FormatSVG).Return(nil, nil)

	r := New(testLogger())
	r.AddHelper(h1, 50)
	r.AddHelper(h2, 40)

	asset, err := r.Load(context.Background(), interfaces.AssetTypeImageVector, testID, interfaces.FormatSVG)
	assert.NoError(t, err)
	assert.Nil(t, asset)
}

func TestLoadAggregatesErrorsInAttemptOrder(t *testing.T) {
	testID := interfaces.AssetID("abc123")
	errFirst := errors.New("first failure")
	errSecond := errors.New("second failure")

	h1 := &MockHelper{}
	h1.On("CanProvide", interfaces.AssetTypeSound).Return(true)
	h1.On("Load", mock.Anything, interfaces.AssetTypeSound, testID, interfaces.FormatWAV).Return(nil, errFirst)

	h2 := &MockHelper{}
	h2.On("CanProvide", interfaces.AssetTypeSound).Return(true)
	h2.On("Load", mock.Anything, interfaces.AssetTypeSound, testID, interfaces.FormatWAV).Return(nil, nil)

	h3 := &MockHelper{}
	h3.On("CanProvide", interfaces.AssetTypeSound).Return(true)
	h3.On("Load", mock.Anything, interfaces.AssetTypeSound, testID, interfaces.FormatWAV).Return(nil, errSecond)

	r := New(testLogger())
	r.AddHelper(h1, 30)
	r.AddHelper(h2, 20)
	r.AddHelper(h3, 10)

	asset, err := r.Load(context.Background(), interfaces.AssetTypeSound, testID, interfaces.FormatWAV)
	assert.Nil(t, asset)
	require.Error(t, err)

	var agg *interfaces.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errs, 2)
	assert.ErrorIs(t, agg.Errs[0], errFirst)
	assert.ErrorIs(t, agg.Errs[1], errSecond)
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errSecond)
}

func TestLoadSuccessSuppressesEarlierFailures(t *testing.T) {
	testID := interfaces.AssetID("abc123")
	testData := []byte("late winner")

	failing := &MockHelper{}
	failing.On("CanProvide", interfaces.AssetTypeImageBitmap).Return(true)
	failing.On("Load", mock.Anything, interfaces.AssetTypeImageBitmap, testID, interfaces.FormatPNG).
		Return(nil, errors.New("store exploded"))

	succeeding := &MockHelper{}
	succeeding.On("CanProvide", interfaces.AssetTypeImageBitmap).Return(true)
	succeeding.On("Load", mock.Anything, interfaces.AssetTypeImageBitmap, testID, interfaces.FormatPNG).
		Return(interfaces.NewAssetWithData(interfaces.AssetTypeImageBitmap, testID, interfaces.FormatPNG, testData), nil)

	r := New(testLogger())
	r.AddHelper(failing, 20)
	r.AddHelper(succeeding, 10)

	asset, err := r.Load(context.Background(), interfaces.AssetTypeImageBitmap, testID, interfaces.FormatPNG)
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, testData, asset.Data())
}

func TestLoadSkipsHelpersThatCannotProvide(t *testing.T) {
	testID := interfaces.AssetID("abc123")

	skipped := &MockHelper{}
	skipped.On("CanProvide", interfaces.AssetTypeSound).Return(false)
	// Load must never be invoked on a skipped helper

	serving := &MockHelper{}
	serving.On("CanProvide", interfaces.AssetTypeSound).Return(true)
	serving.On("Load", mock.Anything, interfaces.AssetTypeSound, testID, interfaces.FormatWAV).Return(nil, nil)

	r := New(testLogger())
	r.AddHelper(skipped, 50)
	r.AddHelper(serving, 40)

	asset, err := r.Load(context.Background(), interfaces.AssetTypeSound, testID, interfaces.FormatWAV)
	assert.NoError(t, err)
	assert.Nil(t, asset)
	skipped.AssertNotCalled(t, "Load", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	skipped.AssertExpectations(t)
	serving.AssertExpectations(t)
}

func TestLoadDefaultsFormatToRuntimeFormat(t *testing.T) {
	testID := interfaces.AssetID("abc123")

	h := &MockHelper{}
	h.On("CanProvide", interfaces.AssetTypeImageVector).Return(true)
	h.On("Load", mock.Anything, interfaces.AssetTypeImageVector, testID, interfaces.FormatSVG).
		Return(interfaces.NewAssetWithData(interfaces.AssetTypeImageVector, testID, interfaces.FormatSVG, []byte("<svg/>")), nil)

	r := New(testLogger())
	r.AddHelper(h, 10)

	asset, err := r.Load(context.Background(), interfaces.AssetTypeImageVector, testID, "")
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, interfaces.FormatSVG, asset.Format)
	h.AssertExpectations(t)
}

func TestLoadPromotesRemoteAssetIntoCache(t *testing.T) {
	testID := interfaces.AssetID("abc123")
	testData := []byte("remote payload")

	remote := &MockHelper{}
	remote.On("CanProvide", interfaces.AssetTypeImageBitmap).Return(true)
	remote.On("Load", mock.Anything, interfaces.AssetTypeImageBitmap, testID, interfaces.FormatPNG).
		Return(interfaces.NewAssetWithData(interfaces.AssetTypeImageBitmap, testID, interfaces.FormatPNG, testData), nil).
		Once()

	r := New(testLogger())
	r.AddHelper(remote, 10)

	first, err := r.Load(context.Background(), interfaces.AssetTypeImageBitmap, testID, interfaces.FormatPNG)
	require.NoError(t, err)
	require.NotNil(t, first)

	// The promoted asset must now be served synchronously from the cache.
	cached := r.Get(testID)
	require.NotNil(t, cached)
	assert.Equal(t, testData, cached.Data())

	// A second load is served by the built-in helper without touching the
	// remote helper again.
	second, err := r.Load(context.Background(), interfaces.AssetTypeImageBitmap, testID, interfaces.FormatPNG)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, testData, second.Data())
	remote.AssertExpectations(t)
}

func TestStoreMirrorsIntoCache(t *testing.T) {
	testData := []byte("stored payload")

	r := New(testLogger())
	r.AddStore([]interfaces.AssetType{interfaces.AssetTypeSound}, newMemSource(t))

	result, err := r.Store(context.Background(), interfaces.AssetTypeSound, interfaces.FormatWAV, testData, "")
	require.NoError(t, err)
	require.NotNil(t, result)
	require.False(t, result.ID.Empty())

	cached := r.Get(result.ID)
	require.NotNil(t, cached)
	assert.Equal(t, testData, cached.Data())
}

func TestStoreFailureIsNotCached(t *testing.T) {
	testErr := errors.New("backend write failed")

	source := &MockSource{name: "mock-A", caps: interfaces.CapReadWrite}
	source.On("Create", mock.Anything, mock.Anything).Return(nil, testErr)

	r := New(testLogger())
	r.AddStore([]interfaces.AssetType{interfaces.AssetTypeImageBitmap}, source)

	result, err := r.Store(context.Background(), interfaces.AssetTypeImageBitmap, interfaces.FormatPNG, []byte("data"), "")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, testErr)
	assert.Equal(t, 0, r.Builtin().Len())
}

func TestStoreWithoutEligibleStoreFailsFast(t *testing.T) {
	r := New(testLogger())

	result, err := r.Store(context.Background(), interfaces.AssetTypeSound, interfaces.FormatWAV, []byte("data"), "")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, interfaces.ErrNoAppropriateStore)
}

func TestProjectLoadIssuesNoNetworkCalls(t *testing.T) {
	source := &MockSource{name: "mock-A", caps: interfaces.CapReadWrite}
	// Get must never be invoked for a Project load

	r := New(testLogger())
	r.AddStore(interfaces.AllAssetTypes(), source)

	asset, err := r.Load(context.Background(), interfaces.AssetTypeProject, "12345", interfaces.FormatJSON)
	assert.NoError(t, err)
	assert.Nil(t, asset)
	source.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddHelperEqualPrioritiesKeepRegistrationOrder(t *testing.T) {
	testID := interfaces.AssetID("abc123")

	var order []string
	newHelper := func(name string) *MockHelper {
		h := &MockHelper{}
		h.On("CanProvide", interfaces.AssetTypeSound).Return(true)
		h.On("Load", mock.Anything, interfaces.AssetTypeSound, testID, interfaces.FormatWAV).
			Run(func(mock.Arguments) { order = append(order, name) }).
			Return(nil, nil)
		return h
	}

	r := New(testLogger())
	for i := 0; i < 4; i++ {
		r.AddHelper(newHelper(fmt.Sprintf("h%d", i)), 7)
	}

	_, err := r.Load(context.Background(), interfaces.AssetTypeSound, testID, interfaces.FormatWAV)
	require.NoError(t, err)
	assert.Equal(t, []string{"h0", "h1", "h2", "h3"}, order)
}

func TestCacheAndGet(t *testing.T) {
	testData := []byte("direct cache insert")

	r := New(testLogger())
	id := r.Cache(interfaces.AssetTypeImageVector, interfaces.FormatSVG, testData, "")

	assert.Equal(t, interfaces.ComputeAssetID(testData), id)
	cached := r.Get(id)
	require.NotNil(t, cached)
	assert.Equal(t, testData, cached.Data())
	assert.Equal(t, interfaces.AssetTypeImageVector, cached.Type)
}

// Scenario: empty cache plus one remote store holding the payload resolves
// through the chain.
func TestScenarioCacheMissRemoteHit(t *testing.T) {
	testID := interfaces.AssetID("abc123")
	testData := []byte("PNG...")

	source := &MockSource{name: "mock-remote", caps: interfaces.CapGet}
	source.On("Get", mock.Anything, testID, interfaces.FormatPNG).Return(testData, nil)

	r := New(testLogger())
	r.AddStore([]interfaces.AssetType{interfaces.AssetTypeImageVector, interfaces.AssetTypeImageBitmap}, source)

	asset, err := r.Load(context.Background(), interfaces.AssetTypeImageVector, testID, interfaces.FormatPNG)
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, testData, asset.Data())
	assert.Equal(t, interfaces.FormatPNG, asset.Format)
	source.AssertExpectations(t)
}
