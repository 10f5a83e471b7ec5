// Package flags holds the CLI flags and setup helpers shared by the asset
// service binaries.
package flags

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/BX-Coding/scratch-storage/common"
	"github.com/BX-Coding/scratch-storage/httpserver"
	"github.com/BX-Coding/scratch-storage/interfaces"
	"github.com/BX-Coding/scratch-storage/resolver"
	"github.com/BX-Coding/scratch-storage/storage"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *httpserver.HTTPServerConfig {
	metricsAddr := cCtx.String("metrics-addr")
	enablePprof := cCtx.Bool("pprof")
	drainDuration := time.Duration(cCtx.Int64("drain-seconds")) * time.Second

	return &httpserver.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// ConfigureResolver builds a resolver with every --source URI registered in
// flag order, which is also the fallback order within the web helper. A
// `types` query parameter on a URI restricts that source to the named asset
// types; without one the source serves every type. The --webstore shorthand
// appends a full-capability HTTP store, and --register-defaults preloads the
// built-in default assets into the cache.
func ConfigureResolver(cCtx *cli.Context, logger *slog.Logger) (*resolver.Resolver, error) {
	rsv := resolver.New(logger)
	factory := storage.NewSourceFactory(logger)

	for _, uri := range cCtx.StringSlice(SourceFlag.Name) {
		location, err := interfaces.NewSourceLocation(uri)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", uri, err)
		}

		types, err := SourceAssetTypes(location)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", uri, err)
		}

		source, err := factory.SourceFor(location)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", uri, err)
		}

		rsv.AddStore(types, source)
		logger.Info("Registered asset source",
			slog.String("source", source.Name()),
			slog.String("caps", source.Capabilities().String()))
	}

	if webstore := cCtx.String(WebstoreFlag.Name); webstore != "" {
		rsv.AddWebStore(interfaces.AllAssetTypes(), strings.TrimSuffix(webstore, "/"), interfaces.CapReadWrite, nil)
		logger.Info("Registered web asset store", slog.String("url", webstore))
	}

	if cCtx.Bool(RegisterDefaultsFlag.Name) {
		if err := rsv.Builtin().RegisterDefaults(resolver.DefaultAssets()); err != nil {
			return nil, fmt.Errorf("registering default assets: %w", err)
		}
		logger.Info("Registered built-in default assets")
	}

	return rsv, nil
}

// SourceAssetTypes resolves the `types` query parameter of a source URI into
// asset types, defaulting to every type when the parameter is absent.
func SourceAssetTypes(location interfaces.SourceLocation) ([]interfaces.AssetType, error) {
	param := location.GetParam("types")
	if param == "" {
		return interfaces.AllAssetTypes(), nil
	}

	types := make([]interfaces.AssetType, 0, 4)
	for _, name := range strings.Split(param, ",") {
		assetType, err := interfaces.ParseAssetType(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		types = append(types, assetType)
	}
	return types, nil
}

var SourceFlag = &cli.StringSliceFlag{
	Name:  "source",
	Usage: "asset source location URI, repeatable. Supported schemes: mem, file, http(s), s3, redis, ipfs, vault. Add types=ImageBitmap,Sound to restrict a source to specific asset types",
}

var WebstoreFlag = &cli.StringFlag{
	Name:  "webstore",
	Usage: "base URL of a read-write HTTP asset store, shorthand for --source with caps=get,create,update",
}

var RegisterDefaultsFlag = &cli.BoolFlag{
	Name:  "register-defaults",
	Value: false,
	Usage: "preload the built-in default costume, backdrop, sound and empty project into the cache",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
