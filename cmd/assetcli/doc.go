// Package main (cmd/assetcli) implements a command-line client for the asset
// resolution chain.
//
// The client resolves individual assets directly against configured source
// URIs, without going through a gateway server. It is intended for debugging
// source configurations, seeding stores, and scripted asset transfers.
//
// The client supports three commands:
//
//	get - Resolve one asset by type and md5 reference, trying each --source
//	      in flag order, and write the payload to stdout or a file.
//
//	put - Store a file's contents as an asset. Without --id the write is a
//	      create and the backend assigns the id; with --id it is an update.
//	      The backend's write result is printed as JSON.
//
//	id  - Print the content-addressed id (lowercase md5 hex) of a local file
//	      without contacting any source.
//
// Source URIs that fail to construct are skipped with a warning, so a
// partially reachable mirror list still resolves.
package main
