package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/BX-Coding/scratch-storage/cmd/flags"
	"github.com/BX-Coding/scratch-storage/interfaces"
	"github.com/BX-Coding/scratch-storage/resolver"
	"github.com/BX-Coding/scratch-storage/storage"
)

var flagOutput = &cli.StringFlag{
	Name:    "output",
	Aliases: []string{"o"},
	Usage:   "write the payload to a file instead of stdout",
}
var flagID = &cli.StringFlag{
	Name:  "id",
	Usage: "existing asset id, turns the write into an update",
}
var flagFormat = &cli.StringFlag{
	Name:  "format",
	Usage: "data format override; defaults to the file extension or the type's runtime format",
}

func main() {
	app := &cli.App{
		Name:  "assetcli",
		Usage: "Resolve and store individual assets against configured sources",
		Flags: []cli.Flag{
			flags.SourceFlag,
			flags.WebstoreFlag,
			flags.LogJsonFlag,
			flags.LogDebugFlag,
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "fetch one asset and write its payload",
				ArgsUsage: "<assetType> <md5ext>",
				Flags:     []cli.Flag{flagOutput},
				Action: func(cCtx *cli.Context) error {
					c, err := NewClient(cCtx)
					if err != nil {
						return err
					}
					return c.Get(cCtx)
				},
			},
			{
				Name:      "put",
				Usage:     "store a payload and print the backend write result",
				ArgsUsage: "<assetType> <file>",
				Flags:     []cli.Flag{flagID, flagFormat},
				Action: func(cCtx *cli.Context) error {
					c, err := NewClient(cCtx)
					if err != nil {
						return err
					}
					return c.Put(cCtx)
				},
			},
			{
				Name:      "id",
				Usage:     "print the content-addressed id of a file",
				ArgsUsage: "<file>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.Args().Len() != 1 {
						return fmt.Errorf("usage: id <file>")
					}
					data, err := os.ReadFile(cCtx.Args().Get(0))
					if err != nil {
						return err
					}
					fmt.Println(interfaces.ComputeAssetID(data))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type Client struct {
	Resolver *resolver.Resolver
}

// NewClient builds a resolver over the --source URIs. Construction failures
// are skipped with a warning; only a fully unusable source list is an error.
func NewClient(cCtx *cli.Context) (*Client, error) {
	logger := flags.SetupLogger(cCtx)
	rsv := resolver.New(logger)

	uris := cCtx.StringSlice(flags.SourceFlag.Name)
	if len(uris) > 0 {
		locations := make([]interfaces.SourceLocation, 0, len(uris))
		for _, uri := range uris {
			location, err := interfaces.NewSourceLocation(uri)
			if err != nil {
				return nil, fmt.Errorf("source %q: %w", uri, err)
			}
			locations = append(locations, location)
		}

		sources, err := storage.NewSourceFactory(logger).SourcesFor(locations)
		if err != nil {
			return nil, err
		}
		for _, source := range sources {
			rsv.AddStore(interfaces.AllAssetTypes(), source)
		}
	}

	if webstore := cCtx.String(flags.WebstoreFlag.Name); webstore != "" {
		rsv.AddWebStore(interfaces.AllAssetTypes(), strings.TrimSuffix(webstore, "/"), interfaces.CapReadWrite, nil)
	}

	return &Client{Resolver: rsv}, nil
}

func (c *Client) Get(cCtx *cli.Context) error {
	if cCtx.Args().Len() != 2 {
		return fmt.Errorf("usage: get <assetType> <md5ext>")
	}

	assetType, err := interfaces.ParseAssetType(cCtx.Args().Get(0))
	if err != nil {
		return err
	}
	id, format, err := interfaces.ParseAssetRef(assetType, cCtx.Args().Get(1))
	if err != nil {
		return err
	}

	asset, err := c.Resolver.Load(cCtx.Context, assetType, id, format)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	if asset == nil {
		return fmt.Errorf("asset %s.%s not found in any source", id, format)
	}

	if output := cCtx.String(flagOutput.Name); output != "" {
		return os.WriteFile(output, asset.Data(), 0o644)
	}
	_, err = os.Stdout.Write(asset.Data())
	return err
}

func (c *Client) Put(cCtx *cli.Context) error {
	if cCtx.Args().Len() != 2 {
		return fmt.Errorf("usage: put <assetType> <file>")
	}

	assetType, err := interfaces.ParseAssetType(cCtx.Args().Get(0))
	if err != nil {
		return err
	}

	path := cCtx.Args().Get(1)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	format := assetType.RuntimeFormat()
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		format, err = interfaces.ParseDataFormat(ext)
		if err != nil {
			return err
		}
	}
	if name := cCtx.String(flagFormat.Name); name != "" {
		format, err = interfaces.ParseDataFormat(name)
		if err != nil {
			return err
		}
	}

	result, err := c.Resolver.Store(cCtx.Context, assetType, format, data, interfaces.AssetID(cCtx.String(flagID.Name)))
	if err != nil {
		return fmt.Errorf("store failed: %w", err)
	}

	encoded, _ := json.Marshal(result)
	fmt.Println(string(encoded))
	return nil
}
