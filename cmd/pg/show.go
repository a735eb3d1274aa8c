package main

import (
	"context"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <manifest>",
	Short: "Show the proof graph built from a manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openSession(context.Background(), args[0])
		if err != nil {
			return err
		}
		defer s.Close()
		return printSession(cmd.OutOrStdout(), s)
	},
}
