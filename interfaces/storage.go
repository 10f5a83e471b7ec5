package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// SourceLocation represents URI for an asset source.
type SourceLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
}

// NewSourceLocation creates a source location from a URI string with validation.
func NewSourceLocation(uri string) (SourceLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return SourceLocation{}, fmt.Errorf("%w: %s", ErrInvalidLocationURI, err)
	}

	scheme := parsed.Scheme
	switch scheme {
	case "mem", "file", "http", "https", "s3", "redis", "rediss", "ipfs", "vault":
		// Valid scheme
	default:
		return SourceLocation{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, scheme)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return SourceLocation{
		Raw:    uri,
		Scheme: scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
	}, nil
}

// String returns the original URI string.
func (loc SourceLocation) String() string {
	return loc.Raw
}

// IsMemory checks if this is an in-memory source location.
func (loc SourceLocation) IsMemory() bool {
	return loc.Scheme == "mem"
}

// IsFile checks if this is a file system source location.
func (loc SourceLocation) IsFile() bool {
	return loc.Scheme == "file"
}

// IsWeb checks if this is an HTTP asset store location.
func (loc SourceLocation) IsWeb() bool {
	return loc.Scheme == "http" || loc.Scheme == "https"
}

// IsS3 checks if this is an S3 source location.
func (loc SourceLocation) IsS3() bool {
	return loc.Scheme == "s3"
}

// IsRedis checks if this is a Redis source location.
func (loc SourceLocation) IsRedis() bool {
	return loc.Scheme == "redis" || loc.Scheme == "rediss"
}

// IsIPFS checks if this is an IPFS source location.
func (loc SourceLocation) IsIPFS() bool {
	return loc.Scheme == "ipfs"
}

// IsVault checks if this is a Vault source location.
func (loc SourceLocation) IsVault() bool {
	return loc.Scheme == "vault"
}

// GetParam returns a query parameter value.
func (loc SourceLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc SourceLocation) GetParamBool(name string) bool {
	value := loc.Query.Get(name)
	return value == "true" || value == "1" || value == "yes"
}

var (
	// ErrAssetNotFound is returned when a source is reachable and definitively
	// reports absence. It advances a fallback chain without being recorded.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrBackendUnavailable is returned when an asset source is not accessible.
	// This could be due to network issues, authentication failures, or service outages.
	ErrBackendUnavailable = errors.New("asset source unavailable")

	// ErrInvalidLocationURI is returned when a source location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid source location URI")

	// ErrNoAppropriateStore is returned when no registered store covers the
	// requested asset type with the required capability. Raised before any I/O.
	ErrNoAppropriateStore = errors.New("no appropriate store for asset type")

	// ErrUnsupportedAssetType is returned for asset categories a helper
	// deliberately does not serve yet.
	ErrUnsupportedAssetType = errors.New("unsupported asset type")

	// ErrReadOnlySource is returned by write operations on sources without
	// create or update capability.
	ErrReadOnlySource = errors.New("source is read-only")

	// ErrPayloadAlreadySet is returned when attaching data to an asset that is
	// already loaded.
	ErrPayloadAlreadySet = errors.New("asset payload already set")
)

// SourceCapabilities declares which operations a source supports.
type SourceCapabilities uint8

const (
	// CapGet for read access
	CapGet SourceCapabilities = 1 << iota
	// CapCreate for writes that assign a new id
	CapCreate
	// CapUpdate for writes to an existing id
	CapUpdate

	// CapReadWrite is the full capability set.
	CapReadWrite = CapGet | CapCreate | CapUpdate
)

// CanGet reports read capability.
func (c SourceCapabilities) CanGet() bool { return c&CapGet != 0 }

// CanCreate reports create capability.
func (c SourceCapabilities) CanCreate() bool { return c&CapCreate != 0 }

// CanUpdate reports update capability.
func (c SourceCapabilities) CanUpdate() bool { return c&CapUpdate != 0 }

// String returns a compact "get|create|update" form for logs.
func (c SourceCapabilities) String() string {
	out := ""
	if c.CanGet() {
		out += "get|"
	}
	if c.CanCreate() {
		out += "create|"
	}
	if c.CanUpdate() {
		out += "update|"
	}
	if out == "" {
		return "none"
	}
	return out[:len(out)-1]
}

// ParseCapabilities parses a comma-separated capability list such as
// "get,create,update", as used in source location URI parameters.
func ParseCapabilities(s string) (SourceCapabilities, error) {
	var caps SourceCapabilities
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case "get":
			caps |= CapGet
		case "create":
			caps |= CapCreate
		case "update":
			caps |= CapUpdate
		case "":
		default:
			return 0, fmt.Errorf("unknown capability: %q", part)
		}
	}
	return caps, nil
}

// StoreRequest describes one write. An empty ID requests a create, a non-empty
// ID requests an update.
type StoreRequest struct {
	Type   AssetType
	Format DataFormat
	ID     AssetID
	Data   []byte
}

// Ref returns the "id.format" form for logs, "(new).format" for creates.
func (r StoreRequest) Ref() string {
	if r.ID.Empty() {
		return fmt.Sprintf("(new).%s", r.Format)
	}
	return fmt.Sprintf("%s.%s", r.ID, r.Format)
}

// StoreResult is the backend write response. ID carries the assigned or
// confirmed asset id; Raw preserves the backend response body verbatim.
type StoreResult struct {
	ID     AssetID `json:"id"`
	Status string  `json:"status,omitempty"`
	Raw    []byte  `json:"-"`
}

// AssetSource provides typed asset storage keyed by (id, format). The object
// key within a source is "{id}.{format}".
type AssetSource interface {
	// Get retrieves a payload. Returns ErrAssetNotFound when the source is
	// reachable and the key is definitively absent.
	Get(ctx context.Context, id AssetID, format DataFormat) ([]byte, error)

	// Create stores a payload under a new id and returns the write metadata.
	// Sources without create capability return ErrReadOnlySource.
	Create(ctx context.Context, req StoreRequest) (*StoreResult, error)

	// Update stores a payload under an existing id.
	Update(ctx context.Context, req StoreRequest) (*StoreResult, error)

	// Capabilities declares the operations this source supports.
	Capabilities() SourceCapabilities

	// Available checks if the source is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this source.
	LocationURI() string
}

// SourceFactory creates asset sources.
type SourceFactory interface {
	// SourceFor creates a source from URI.
	// Supports mem://, file://, http://, https://, s3://, redis://, ipfs://, vault://
	SourceFor(location SourceLocation) (AssetSource, error)

	// SourcesFor creates sources for several URIs, skipping invalid entries.
	SourcesFor(locations []SourceLocation) ([]AssetSource, error)
}
