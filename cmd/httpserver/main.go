package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/BX-Coding/scratch-storage/cmd/flags"
	"github.com/BX-Coding/scratch-storage/httpserver"
)

var GatewayServiceLogFlag = flags.LogServiceFlagFn("asset-gateway")

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for the asset API",
}

func main() {
	app := &cli.App{
		Name:  "asset-gateway",
		Usage: "Serve typed assets from configured sources with in-memory caching",
		Flags: append([]cli.Flag{ListenAddrFlag, flags.SourceFlag, flags.WebstoreFlag, flags.RegisterDefaultsFlag, GatewayServiceLogFlag}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String(ListenAddrFlag.Name)

			// Setup logger
			logger := flags.SetupLogger(cCtx)

			// Build the resolver and register the configured sources
			rsv, err := flags.ConfigureResolver(cCtx, logger)
			if err != nil {
				logger.Error("Failed to configure asset sources", "err", err)
				return err
			}

			server, err := httpserver.New(flags.ConfigureServer(cCtx, logger, listenAddr), rsv)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			// Shutdown server gracefully
			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
