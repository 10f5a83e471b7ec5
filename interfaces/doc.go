// Package interfaces defines core interfaces and types for the asset
// resolution system, separating interface definitions from implementations.
//
// The package provides the contracts between the key components of the system:
//
// # Resolution Interfaces
//
// Helper: A priority-tagged asset provider in the resolution chain. Helpers
// declare which asset types they can serve (CanProvide), attempt loads with a
// three-way outcome (asset, clean not-found, or error), and route stores to
// the best-matching registered backend.
//
// # Storage Interfaces
//
// AssetSource: Typed asset storage keyed by asset id and data format, across
// multiple source kinds (in-memory, HTTP asset stores, S3, Redis, IPFS, Vault,
// file system). Sources declare their capabilities (get, create, update) so
// store routing can skip read-only backends without attempting I/O.
//
// SourceFactory: Creates asset sources from URI strings such as
// s3://bucket/prefix?region=us-east-1 or redis://host:6379/0.
//
// # Data Types
//
// The package also defines the core data types passed between components:
//
//   - Asset: a typed, formatted, identified payload; constructed empty and
//     loaded exactly once
//   - AssetType: closed enumeration (Project, ImageBitmap, ImageVector, Sound)
//     with per-type runtime format and immutability
//   - DataFormat: closed enumeration of serialization formats (png, svg, wav,
//     json, ...)
//   - AssetID: content-derived (md5 hex) or server-assigned identifier
//   - StoreRequest/StoreResult: write descriptor and backend write metadata
//
// # Error Semantics
//
// Sentinel errors distinguish the outcomes the resolution chain treats
// differently: ErrAssetNotFound advances a chain silently, transport errors
// are recorded and surfaced only on total exhaustion as an AggregateError,
// ErrNoAppropriateStore and ErrUnsupportedAssetType fail fast before any I/O.
package interfaces
