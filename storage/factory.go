package storage

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BX-Coding/scratch-storage/interfaces"
	"github.com/BX-Coding/scratch-storage/transport"
)

// SourceFactory creates asset sources from URI strings, so deployments can
// wire their source chain from flat configuration.
type SourceFactory struct {
	log    *slog.Logger
	client *transport.Client
}

// NewSourceFactory creates a new factory instance that can create asset sources.
func NewSourceFactory(logger *slog.Logger) *SourceFactory {
	return &SourceFactory{
		log:    logger,
		client: transport.NewClient(logger),
	}
}

// SourceFor creates an asset source from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - mem:// - In-process map, for tests and scratch use
//   - file:// - Local filesystem storage
//   - http:// / https:// - HTTP asset store
//   - s3:// - Amazon S3 or compatible object storage
//   - redis:// - Redis byte store, typically a shared fast tier
//   - ipfs:// - IPFS directory root (read-only)
//   - vault:// - HashiCorp Vault KV v2, for restricted assets
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *SourceFactory) SourceFor(location interfaces.SourceLocation) (interfaces.AssetSource, error) {
	switch strings.ToLower(location.Scheme) {
	case "mem":
		return sf.createMemorySource(location)
	case "file":
		return sf.createFileSource(location)
	case "http", "https":
		return sf.createWebSource(location)
	case "s3":
		return sf.createS3Source(location)
	case "redis", "rediss":
		return sf.createRedisSource(location)
	case "ipfs":
		return sf.createIPFSSource(location)
	case "vault":
		return sf.createVaultSource(location)
	default:
		return nil, fmt.Errorf("%w: unsupported source scheme %q", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// SourcesFor creates asset sources for a list of location URIs, skipping
// entries that fail with a warning. Returns an error if no valid source could
// be created from the provided URIs.
func (sf *SourceFactory) SourcesFor(locations []interfaces.SourceLocation) ([]interfaces.AssetSource, error) {
	sources := make([]interfaces.AssetSource, 0, len(locations))

	for _, location := range locations {
		source, err := sf.SourceFor(location)
		if err != nil {
			sf.log.Warn("Failed to create asset source",
				"err", err,
				slog.String("locationURI", location.String()))
			continue
		}
		sources = append(sources, source)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no valid asset sources created")
	}

	return sources, nil
}

// createMemorySource creates an in-process source.
// URI format: mem://name
func (sf *SourceFactory) createMemorySource(location interfaces.SourceLocation) (interfaces.AssetSource, error) {
	return NewMemorySource(location.Host, sf.log), nil
}

// createFileSource creates a file system source.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *SourceFactory) createFileSource(location interfaces.SourceLocation) (interfaces.AssetSource, error) {
	sf.log.Debug("Creating file source", slog.String("uri", location.String()))

	path := location.Path
	if location.Host != "" {
		path = location.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("empty path in file URI: %s", location)
	}

	return NewFileSource(path, sf.log)
}

// createWebSource creates an HTTP asset store source.
// URI format: https://assets.example.com/internalapi/asset?caps=get,create,update
// Capabilities default to read-only. Basic auth embedded in the URI becomes an
// Authorization header on every request.
func (sf *SourceFactory) createWebSource(location interfaces.SourceLocation) (interfaces.AssetSource, error) {
	sf.log.Debug("Creating web source", slog.String("uri", location.String()))

	caps := interfaces.CapGet
	if capsParam := location.GetParam("caps"); capsParam != "" {
		parsed, err := interfaces.ParseCapabilities(capsParam)
		if err != nil {
			return nil, fmt.Errorf("invalid caps parameter: %w", err)
		}
		caps = parsed
	}

	var decorate transport.RequestDecorator
	if location.Auth != "" {
		authHeader := "Basic " + base64.StdEncoding.EncodeToString([]byte(location.Auth))
		decorate = func(r *transport.Request) {
			if r.Header == nil {
				r.Header = http.Header{}
			}
			r.Header.Set("Authorization", authHeader)
		}
	}

	baseURL := fmt.Sprintf("%s://%s%s", location.Scheme, location.Host, strings.TrimSuffix(location.Path, "/"))
	return NewWebSource(baseURL, caps, sf.client, decorate, sf.log), nil
}

// createS3Source creates an S3 or S3-compatible source.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=us-west-2&endpoint=custom.s3.com
// The source supports both public buckets (read-only) and authenticated access.
func (sf *SourceFactory) createS3Source(location interfaces.SourceLocation) (interfaces.AssetSource, error) {
	sf.log.Debug("Creating S3 source", slog.String("uri", location.String()))

	bucketName := location.Host
	prefix := strings.TrimPrefix(location.Path, "/")

	region := location.GetParam("region")
	if region == "" {
		region = "us-east-1" // Default region
	}
	endpoint := location.GetParam("endpoint")

	var accessKey, secretKey string
	if location.Auth != "" {
		accessKey, secretKey, _ = strings.Cut(location.Auth, ":")
		sf.log.Debug("Using embedded credentials for write access")
	} else {
		sf.log.Debug("No credentials provided, S3 bucket assumed to be public, write operations may fail")
	}

	return NewS3Source(bucketName, prefix, region, endpoint, accessKey, secretKey, sf.log)
}

// createRedisSource creates a Redis source.
// URI format: redis://[:password@]host:port/db?prefix=assets&ttl=24h
func (sf *SourceFactory) createRedisSource(location interfaces.SourceLocation) (interfaces.AssetSource, error) {
	sf.log.Debug("Creating redis source", slog.String("uri", location.String()))

	opts := &redis.Options{Addr: location.Host}
	if location.Auth != "" {
		user, pass, hasPass := strings.Cut(location.Auth, ":")
		if hasPass {
			opts.Username = user
			opts.Password = pass
		} else {
			opts.Password = user
		}
	}

	if dbPath := strings.TrimPrefix(location.Path, "/"); dbPath != "" {
		db, err := strconv.Atoi(dbPath)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db in URI path: %w", err)
		}
		opts.DB = db
	}

	var ttl time.Duration
	if ttlParam := location.GetParam("ttl"); ttlParam != "" {
		parsed, err := time.ParseDuration(ttlParam)
		if err != nil {
			return nil, fmt.Errorf("invalid ttl parameter: %w", err)
		}
		ttl = parsed
	}

	return NewRedisSource(opts, location.GetParam("prefix"), ttl, sf.log), nil
}

// createIPFSSource creates a read-only IPFS source.
// URI format: ipfs://host:port/ipfs/<dirCID> or ipfs://host:port/ipns/<name>
func (sf *SourceFactory) createIPFSSource(location interfaces.SourceLocation) (interfaces.AssetSource, error) {
	sf.log.Debug("Creating IPFS source", slog.String("uri", location.String()))

	host, port, found := strings.Cut(location.Host, ":")
	if !found {
		host = location.Host
		port = "5001" // Default IPFS API port
	}

	return NewIPFSSource(host, port, location.Path, sf.log)
}

// createVaultSource creates a Vault KV v2 source.
// URI format: vault://host:port/mount/datapath?token=...&tls=true
// Token defaults to the VAULT_TOKEN environment variable.
func (sf *SourceFactory) createVaultSource(location interfaces.SourceLocation) (interfaces.AssetSource, error) {
	sf.log.Debug("Creating vault source", slog.String("uri", location.String()))

	parts := strings.SplitN(strings.Trim(location.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid vault URI, expected vault://host:port/mount/datapath")
	}

	scheme := "http"
	if location.GetParamBool("tls") {
		scheme = "https"
	}
	address := fmt.Sprintf("%s://%s", scheme, location.Host)

	return NewVaultSource(address, parts[0], parts[1], location.GetParam("token"), sf.log)
}
