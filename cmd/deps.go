package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spoofmac/spoofmac/internal/tools"
)

// depsCmd shows dependency status.
func depsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check tool dependencies",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(e.out, banner())
			fmt.Fprintln(e.out, "\n[*] Dependency Check:")

			deps := tools.NewDependencyChecker()
			fmt.Fprint(e.out, tools.FormatStatus(deps.CheckAll()))

			if missing := deps.MissingRequired(); len(missing) > 0 {
				fmt.Fprintf(e.out, "[-] Missing required tools: %s\n", strings.Join(missing, ", "))
				fmt.Fprintf(e.out, "[*] Install with: %s\n", tools.InstallHint())
				return
			}
			fmt.Fprintln(e.out, "[+] All required tools found")
		},
	}
}
