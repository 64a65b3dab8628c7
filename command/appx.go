package command

import (
	"os"
	"runtime"
	"strings"

	"github.com/frantjc/appx"
	xslice "github.com/frantjc/x/slice"
	"github.com/spf13/cobra"
)

// NewAppx returns the root command for
// appx which acts as its CLI entrypoint.
func NewAppx() *cobra.Command {
	var (
		verbosity int
		cmd       = &cobra.Command{
			Use:           "appx",
			Version:       appx.SemVer(),
			SilenceErrors: true,
			SilenceUsage:  true,
			PersistentPreRun: func(cmd *cobra.Command, _ []string) {
				if verbose := os.Getenv("APPX_VERBOSE"); verbose != "" && xslice.Some([]string{"1", "y", "yes", "true", "t"}, func(s string, _ int) bool {
					return strings.EqualFold(s, verbose)
				}) {
					verbosity = 2
				}

				cmd.SetContext(
					appx.WithLogger(
						cmd.Context(), appx.NewLogger(cmd.ErrOrStderr(), verbosity),
					),
				)
			},
		}
	)

	cmd.SetVersionTemplate("{{ .Name }}{{ .Version }} " + runtime.Version() + "\n")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "V", "verbosity for appx")

	cmd.AddCommand(newPlugin())

	return cmd
}
