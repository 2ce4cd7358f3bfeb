package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/reportgest/internal/parser"
	"github.com/dgallion1/reportgest/internal/pipeline"
	"github.com/dgallion1/reportgest/internal/sections"
)

func (a *app) extractCmd() *cobra.Command {
	var format string
	var storeKey string

	cmd := &cobra.Command{
		Use:   "extract <file|->",
		Short: "Extract a local HTML or Markdown report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			p, err := parserFor(path, format)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			res, err := pipeline.ExtractDocument(sections.New(), p, data, nil)
			if err != nil {
				return err
			}
			a.log.Debug("extracted", "source", path, "counts", res.Counts())

			if storeKey != "" {
				if err := a.store(cmd.Context(), storeKey, res); err != nil {
					return err
				}
			}
			return a.writeJSON(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "input format: html|markdown (default: from file extension, html for stdin)")
	cmd.Flags().StringVar(&storeKey, "store", "", "also persist the result under this key")
	return cmd
}

func parserFor(path, format string) (parser.Parser, error) {
	if format != "" || path == "-" {
		return parser.ForFormat(format)
	}
	return parser.ForFile(path)
}
