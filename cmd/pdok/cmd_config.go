package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func NewCmdConfig(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := json.MarshalIndent(c.cfg, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, string(b))
			return err
		},
	}
}
