package main

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/JonMunkholm/importme/internal/core"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type schemaListing struct {
	Key        string   `json:"key"`
	Group      string   `json:"group"`
	Label      string   `json:"label"`
	HeaderRows int      `json:"header_rows"`
	Columns    []string `json:"columns"`
}

func newSchemasCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List the registered schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var listing []schemaListing
			for _, s := range core.All() {
				listing = append(listing, schemaListing{
					Key:        s.Key,
					Group:      s.Group,
					Label:      s.Label,
					HeaderRows: s.Config.HeaderRows,
					Columns:    s.Config.ColumnNames(),
				})
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(listing)
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Key", "Group", "Label", "Header rows", "Columns"})
			table.SetAutoWrapText(false)
			for _, s := range listing {
				table.Append([]string{s.Key, s.Group, s.Label, strconv.Itoa(s.HeaderRows), strings.Join(s.Columns, ", ")})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
