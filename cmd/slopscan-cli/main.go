// Package main provides the SlopScan CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harshakrishna15/SlopScan/internal/app"
	"github.com/harshakrishna15/SlopScan/internal/config"
	"github.com/harshakrishna15/SlopScan/internal/observability"
	"github.com/harshakrishna15/SlopScan/pkg/slopscan"
)

// cli carries global flags and the handles built from them.
type cli struct {
	cfgFile    string
	serverURL  string
	outputJSON bool
	verbose    bool
	noColor    bool

	out    io.Writer
	errOut io.Writer

	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "slopscan",
		Short: "Identify grocery products from photos and find greener alternatives",
		Long: `SlopScan matches a product photo against an embedded catalog and suggests
brand-diverse alternatives with a better ecoscore.

Commands run against the configured catalog directly, or against a running
server when --server is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg

			level := "warn"
			if c.verbose {
				level = "debug"
			}
			c.logger = observability.NewLogger(observability.LogConfig{
				Level:       level,
				Format:      "console",
				Output:      c.errOut,
				ServiceName: "slopscan-cli",
			})
			c.ui = NewUI(c.out, c.errOut, c.noColor)
			return nil
		},
	}

	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&c.cfgFile, "config", "c", os.Getenv("CONFIG_PATH"), "config file path (default: env vars)")
	pf.StringVar(&c.serverURL, "server", "", "SlopScan server URL; commands call its API instead of the local catalog")
	pf.BoolVar(&c.outputJSON, "json", false, "output in JSON format")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&c.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newIdentifyCmd(c),
		newProductCmd(c),
		newRecommendCmd(c),
		newSeedCmd(c),
		newStatsCmd(c),
	)

	return root
}

// backend builds the local or remote backend for one command.
func (c *cli) backend(ctx context.Context) (backend, error) {
	if c.serverURL != "" {
		return &remoteBackend{
			client: slopscan.NewClient(slopscan.ClientConfig{BaseURL: c.serverURL}),
			url:    c.serverURL,
		}, nil
	}

	a, err := app.New(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	return &localBackend{app: a}, nil
}

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		NewUI(os.Stdout, os.Stderr, false).Error("%v", err)
		os.Exit(1)
	}
}
