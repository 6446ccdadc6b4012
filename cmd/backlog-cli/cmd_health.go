package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := apiClient.Health(cmd.Context())
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), h, h.Status,
				[]string{"STATUS", "VERSION", "SCHEMA", "DATABASE", "UPTIME"},
				[][]string{{
					h.Status,
					h.Version,
					strconv.Itoa(h.SchemaVersion),
					h.Database,
					fmt.Sprintf("%.0fs", h.UptimeSeconds),
				}})
		},
	}
}
