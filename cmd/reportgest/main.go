// Command reportgest extracts whitelisted sections and their tables from
// HTML or Markdown reports.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/reportgest/internal/config"
	"github.com/dgallion1/reportgest/internal/sections"
	"github.com/dgallion1/reportgest/internal/sink"
)

type app struct {
	configPath string
	verbose    bool
	indent     bool

	cfg config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "reportgest",
		Short:         "Extract whitelisted report sections into JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			path := a.configPath
			if path == "" {
				path = os.Getenv("REPORTGEST_CONFIG")
			}
			cfg, err := config.LoadWithFile(path)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (default: $REPORTGEST_CONFIG)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().BoolVar(&a.indent, "indent", false, "pretty-print JSON output")

	root.AddCommand(a.extractCmd(), a.fetchCmd(), a.sectionsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) writeJSON(cmd *cobra.Command, v any) error {
	var (
		b   []byte
		err error
	)
	if a.indent {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

// store persists res under key using the configured sink.
func (a *app) store(ctx context.Context, key string, res sections.Result) error {
	if a.cfg.Sink == config.SinkNone {
		return fmt.Errorf("--store needs a sink; set SINK or the config file sink")
	}
	if err := a.cfg.ValidateSink(); err != nil {
		return err
	}
	s, closeFn, err := sink.Open(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	if err := s.Put(ctx, key, res); err != nil {
		return err
	}
	a.log.Info("stored result", "sink", s.Name(), "key", key)
	return nil
}
