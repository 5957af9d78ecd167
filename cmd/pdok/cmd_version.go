package main

import (
	"fmt"

	"github.com/arbakker/pdok-services/internal/version"

	"github.com/spf13/cobra"
)

func NewCmdVersion(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(c.out, version.VERSION)
			return err
		},
	}
}
