/*
Package httpserver implements the HTTP front end for the asset resolution
service.

It exposes the resolver over a small REST surface: clients fetch assets by
type and md5 reference, and upload new or replacement payloads. Every
successful load is promoted into the in-memory cache, so repeated fetches of
the same asset are served without touching the backing stores.

# Asset API Endpoints

  - GET /assets/{assetType}/{md5ext} - Fetch an asset payload
  - POST /assets/{assetType} - Store a new asset, returns its computed id
  - PUT /assets/{assetType}/{md5ext} - Store an asset under a known id
  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

The {md5ext} segment is the asset's md5 id with an optional data format
extension, for example 84b59e78d3d4ce18d1db838cde0963eb.png. A bare id falls
back to the asset type's runtime format.

# Response Semantics

  - Payload bytes are served with the Content-Type of the asset's data format.
  - Immutable asset types (costumes and sounds, whose id is the md5 of the
    payload) carry a far-future Cache-Control header and an ETag.
  - A miss across every configured source is a 404, not an error.
  - 400 - unknown asset type, unparseable reference, or empty upload body
  - 501 - no configured source can perform the requested operation
  - 502 - every candidate source was tried and failed

# Readiness and Draining

The readiness check probes every registered source and reports 503 with the
list of unavailable sources if any backend is unreachable. GET /drain flips
the server to not-ready ahead of a shutdown so load balancers stop routing to
it; GET /undrain reverses that.

# Example Usage

	cfg := &httpserver.HTTPServerConfig{
		ListenAddr:               ":8080",
		MetricsAddr:              ":9090",
		Log:                      logger,
		DrainDuration:            30 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}

	server, err := httpserver.New(cfg, rsv)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	server.RunInBackground()
	defer server.Shutdown()

Request metrics (load and store counts, outcome labels, duration histograms)
are exported on the metrics listener via the metrics package.
*/
package httpserver
