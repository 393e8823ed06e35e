package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/spoofmac/spoofmac/internal/vendor"
)

// vendorsCmd lists the built-in vendor table or the prefixes of one vendor.
func vendorsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "vendors [name]",
		Short: "List vendors usable with --vendor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl := vendor.Default()
			t := table.NewWriter()

			if len(args) == 0 {
				t.SetTitle("Vendors")
				t.AppendHeader(table.Row{"#", "Vendor", "Prefixes", "Example"})
				for i, name := range tbl.Names() {
					prefixes := tbl.Prefixes(name)
					t.AppendRow(table.Row{i + 1, name, len(prefixes), strings.ToUpper(prefixes[0].String())})
				}
				fmt.Fprintln(e.out, t.Render())
				return nil
			}

			name, err := tbl.Find(args[0])
			if err != nil {
				return err
			}
			t.SetTitle(name)
			t.AppendHeader(table.Row{"#", "Prefix"})
			for i, p := range tbl.Prefixes(name) {
				t.AppendRow(table.Row{i + 1, strings.ToUpper(p.String())})
			}
			fmt.Fprintln(e.out, t.Render())
			return nil
		},
	}
}
