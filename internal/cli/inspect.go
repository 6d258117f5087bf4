package cli

import (
	"fmt"

	"github.com/ralt/debforge/internal/inspect"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <package.deb>",
		Short: "Print the control descriptor of a built package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := inspect.ReadPackage(args[0])
			if err != nil {
				return err
			}

			logrus.Debugf("Container format version: %s", pkg.FormatVersion)
			fmt.Print(string(pkg.Control))
			return nil
		},
	}
}
