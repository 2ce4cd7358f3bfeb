package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/reportgest/internal/fetch"
	"github.com/dgallion1/reportgest/internal/parser"
	"github.com/dgallion1/reportgest/internal/pipeline"
	"github.com/dgallion1/reportgest/internal/sections"
)

func (a *app) fetchCmd() *cobra.Command {
	var storeKey string

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch a report over HTTP(S) and extract it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := fetch.NewClient(fetch.Options{
				Timeout:   a.cfg.FetchTimeout,
				MaxBytes:  a.cfg.FetchMaxBytes,
				UserAgent: a.cfg.FetchUserAgent,
			})
			defer client.Close()

			doc, err := pipeline.Retrieve(cmd.Context(), client, args[0], a.cfg.FetchMaxAttempts, nil, nil, a.log, nil)
			if err != nil {
				return err
			}
			p, err := parser.ForContentType(doc.ContentType)
			if err != nil {
				return err
			}
			res, err := pipeline.ExtractDocument(sections.New(), p, doc.Body, nil)
			if err != nil {
				return err
			}
			a.log.Debug("extracted", "source", doc.URL, "counts", res.Counts())

			if storeKey != "" {
				if err := a.store(cmd.Context(), storeKey, res); err != nil {
					return err
				}
			}
			return a.writeJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&storeKey, "store", "", "also persist the result under this key")
	return cmd
}
