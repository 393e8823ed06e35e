package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spoofmac/spoofmac/internal/config"
	"github.com/spoofmac/spoofmac/ui"
)

// tuiCmd starts the live status dashboard.
func tuiCmd(cfg *config.Config, e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive dashboard with live MAC/IP status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := e.setup(cfg)
			if err != nil {
				return err
			}
			defer svc.close()

			app := ui.NewApp(svc.ctl, ui.Options{
				Interface:    cfg.Interface,
				Vendor:       cfg.Vendor,
				PollInterval: cfg.TUI.PollInterval,
				Elevated:     e.isElevated(),
			})
			return ui.Run(app)
		},
	}
}
