package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BX-Coding/scratch-storage/interfaces"
)

func mustLocation(t *testing.T, uri string) interfaces.SourceLocation {
	t.Helper()
	location, err := interfaces.NewSourceLocation(uri)
	require.NoError(t, err)
	return location
}

func TestSourceForSchemeDispatch(t *testing.T) {
	sf := NewSourceFactory(testLogger())

	tests := []struct {
		name     string
		uri      string
		wantName string
	}{
		{name: "memory", uri: "mem://cache", wantName: "mem-cache"},
		{name: "web", uri: "https://assets.example.com/internalapi/asset", wantName: "web-assets.example.com"},
		{name: "s3", uri: "s3://asset-bucket/assets/?region=us-west-2", wantName: "s3-asset-bucket"},
		{name: "redis", uri: "redis://localhost:6379/2?prefix=fast&ttl=1h", wantName: "redis-fast"},
		{name: "ipfs", uri: "ipfs://localhost:5001/ipfs/QmExampleDirCID", wantName: "ipfs-localhost-5001"},
		{name: "vault", uri: "vault://localhost:8200/secret/assets?token=test", wantName: "vault-secret-assets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := sf.SourceFor(mustLocation(t, tt.uri))
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, source.Name())
		})
	}
}

func TestSourceForFile(t *testing.T) {
	sf := NewSourceFactory(testLogger())

	dir := t.TempDir()
	source, err := sf.SourceFor(mustLocation(t, "file://"+dir))
	require.NoError(t, err)
	assert.Equal(t, interfaces.CapReadWrite, source.Capabilities())
}

func TestSourceForUnsupportedScheme(t *testing.T) {
	_, err := interfaces.NewSourceLocation("ftp://example.com/assets")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestSourceForWebCapabilities(t *testing.T) {
	sf := NewSourceFactory(testLogger())

	tests := []struct {
		name     string
		uri      string
		wantCaps interfaces.SourceCapabilities
		wantErr  bool
	}{
		{name: "default read-only", uri: "https://assets.example.com/asset", wantCaps: interfaces.CapGet},
		{name: "explicit full access", uri: "https://assets.example.com/asset?caps=get,create,update", wantCaps: interfaces.CapReadWrite},
		{name: "create only", uri: "https://assets.example.com/asset?caps=create", wantCaps: interfaces.CapCreate},
		{name: "invalid capability", uri: "https://assets.example.com/asset?caps=delete", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := sf.SourceFor(mustLocation(t, tt.uri))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCaps, source.Capabilities())
		})
	}
}

func TestSourceForRedisInvalidDB(t *testing.T) {
	sf := NewSourceFactory(testLogger())
	_, err := sf.SourceFor(mustLocation(t, "redis://localhost:6379/notanumber"))
	assert.Error(t, err)
}

func TestSourceForIPFSRequiresRoot(t *testing.T) {
	sf := NewSourceFactory(testLogger())
	_, err := sf.SourceFor(mustLocation(t, "ipfs://localhost:5001"))
	assert.Error(t, err)
}

func TestSourceForVaultRequiresMountAndPath(t *testing.T) {
	sf := NewSourceFactory(testLogger())
	_, err := sf.SourceFor(mustLocation(t, "vault://localhost:8200/secretonly"))
	assert.Error(t, err)
}

func TestSourcesForSkipsInvalid(t *testing.T) {
	sf := NewSourceFactory(testLogger())

	locations := []interfaces.SourceLocation{
		mustLocation(t, "mem://one"),
		mustLocation(t, "vault://localhost:8200/secretonly"),
		mustLocation(t, "mem://two"),
	}

	sources, err := sf.SourcesFor(locations)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "mem-one", sources[0].Name())
	assert.Equal(t, "mem-two", sources[1].Name())
}

func TestSourcesForAllInvalid(t *testing.T) {
	sf := NewSourceFactory(testLogger())

	locations := []interfaces.SourceLocation{
		mustLocation(t, "vault://localhost:8200/secretonly"),
	}

	_, err := sf.SourcesFor(locations)
	assert.Error(t, err)
}
