package cli

import (
	"fmt"

	"github.com/ralt/debforge/internal/build"
	"github.com/ralt/debforge/internal/config"
	"github.com/ralt/debforge/internal/toolbox"
	"github.com/spf13/cobra"
)

// NewBuildCmd creates the build command
func NewBuildCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the package described by the configuration file",
		Long: `Reads the static build configuration, assembles the payload and
control archives in an ephemeral working directory and writes
<name>_<version>_<architecture>.deb next to the configuration's root
directory. The produced file name is printed on stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			builder := build.NewBuilder(cfg, toolbox.NewExecRunner())
			debName, err := builder.Build(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(debName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "debforge.toml", "Build configuration file")

	return cmd
}
