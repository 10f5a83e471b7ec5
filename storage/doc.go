// Package storage provides asset sources with pluggable backends.
//
// The storage package offers a unified interface for storing and retrieving
// assets identified by asset id and data format across multiple source kinds:
//
//   - In-memory storage for tests and scratch use
//   - File system storage for local development
//   - HTTP asset stores for hosted asset services
//   - S3-compatible storage for cloud deployments
//   - Redis for a shared fast tier in front of object storage
//   - IPFS directory roots for decentralized, read-only distribution
//   - HashiCorp Vault for restricted assets
//
// # Object Keys
//
// Every source addresses payloads by the same object key:
//
//	{assetId}.{dataFormat}
//
// e.g. 4e5b035e38d4c09d5d08f0cf29a9312b.png. File names on disk, S3 keys,
// Redis keys, IPFS directory entries, and Vault paths all derive from it, so
// the same asset tree can be served from any source kind without remapping.
//
// # Source URI Format
//
// Sources are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Examples:
//
//   - mem://scratch
//   - file:///var/lib/assets/
//   - https://assets.example.com/internalapi/asset?caps=get,create,update
//   - s3://bucket-name/assets/?region=us-west-2
//   - redis://:secret@localhost:6379/0?prefix=assets&ttl=24h
//   - ipfs://127.0.0.1:5001/ipfs/QmDirCID
//   - vault://vault.example.com:8200/secret/assets?tls=true
//
// The SourceFactory creates sources from these URIs and skips invalid entries
// with a warning when building a source list, so one bad URI doesn't take
// down a deployment with working fallbacks.
//
// # Capabilities
//
// Sources declare get/create/update capabilities. Store routing consults the
// declared capabilities before attempting I/O, so read-only sources (IPFS,
// public S3 buckets, web stores without write access) never see write calls.
package storage
