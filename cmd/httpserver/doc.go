// Package main (cmd/httpserver) implements the asset gateway server.
//
// The gateway serves typed assets (costumes, sounds, projects) over HTTP,
// resolving each request against a prioritized chain of sources: an in-memory
// cache first, then the configured remote stores in flag order. Assets loaded
// from a remote store are promoted into the cache, and stored assets are
// mirrored there, so hot assets are served without touching a backend.
//
// Sources are configured as location URIs. Supported schemes are mem://,
// file://, http(s)://, s3://, redis://, ipfs:// and vault://; each URI may
// carry scheme-specific query parameters (capabilities for web stores, region
// and endpoint for S3, ttl and prefix for Redis) plus a types parameter that
// restricts the source to specific asset types.
//
// The server implements graceful shutdown on receiving termination signals
// (SIGINT/SIGTERM) and supports health checks, drain/undrain for load
// balancer coordination, Prometheus metrics, and optional profiling
// endpoints.
//
// Example serving a public S3 bucket with a writable local spill directory:
//
//	asset-gateway --listen-addr=0.0.0.0:8080 \
//	    --source=file:///var/cache/assets \
//	    --source=s3://asset-bucket/prod/?region=us-east-1 \
//	    --register-defaults
//
// Example fronting an upstream HTTP asset store, restricted to sound assets:
//
//	asset-gateway --listen-addr=0.0.0.0:8080 \
//	    --source="https://assets.example.com/internalapi/asset?caps=get&types=Sound" \
//	    --webstore=https://uploads.example.com/asset
package main
