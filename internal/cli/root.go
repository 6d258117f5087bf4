package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "debforge",
		Short: "Build Debian binary packages without the Debian toolchain",
		Long: `Debforge assembles a .deb container (format marker, control archive,
data archive) directly from a compiled executable and a static build
configuration, skipping dpkg-buildpackage entirely.

The package architecture and shared library dependencies are derived
from the executable's ELF header and its dynamic symbol version needs.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	rootCmd.AddCommand(NewBuildCmd())
	rootCmd.AddCommand(NewInspectCmd())

	return rootCmd
}
