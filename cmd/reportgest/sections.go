package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/reportgest/internal/sections"
)

func (a *app) sectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List the accepted section and subsection headings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.writeJSON(cmd, map[string][]sections.Heading{
				"top_level": sections.TopLevel.Headings(),
				"sub_level": sections.SubLevel.Headings(),
			})
		},
	}
}
