// ASTRA web interface
//
// Serves the device's local web pages: the data file listing and the
// configuration form. Every page shares one layout (stylesheet, heading,
// navigation) loaded from the config file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// configEnv names the config file when --config is not given.
const configEnv = "ASTRA_CONFIG"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "astra-web",
		Short: "Web interface for the ASTRA float",
		Long: `astra-web serves the device's local web interface: a listing of the
data files on the device and a form for the device configuration.

Examples:
  astra-web serve --config /etc/astra/astra.yaml
  astra-web render --page upload > upload.html
  astra-web hash-password
  astra-web init-config > astra.yaml`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "Config file (YAML); falls back to $"+configEnv)

	root.AddCommand(
		newServeCmd(),
		newRenderCmd(),
		newHashPasswordCmd(),
		newInitConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "astra-web v%s\n", version)
		},
	}
}
