package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spoofmac/spoofmac/internal/config"
	"github.com/spoofmac/spoofmac/internal/spoof"
)

// generateCmd prints addresses without touching any interface.
func generateCmd(cfg *config.Config, e *env) *cobra.Command {
	var (
		count int
		label string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print random, vendor or stable MAC addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("-n must be at least 1, got %d", count)
			}

			ctl := spoof.NewController(nil, spoof.NewStore(), spoof.Options{
				StableSecret: []byte(cfg.Stable.Secret),
			})
			req := spoof.Request{Vendor: cfg.Vendor, StableLabel: label}

			for range count {
				addr, _, err := ctl.Choose(req)
				if err != nil {
					return err
				}
				fmt.Fprintln(e.out, addr)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "How many addresses to print")
	cmd.Flags().StringVar(&label, "stable", "", "Derive the stable MAC for this label")
	return cmd
}
