package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <manifest>",
	Short: "Replay recorded verifier results onto a proof graph",
	Long: `Builds the graph from the manifest and replays a JSONL results file.
The file defaults to the manifest's "results" entry.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, _ := cmd.Flags().GetString("results")
		out, _ := cmd.Flags().GetString("out")
		ctx := context.Background()

		s, m, err := openSession(ctx, args[0])
		if err != nil {
			return err
		}
		defer s.Close()

		loc := results
		if loc == "" {
			if m.Results == "" {
				return fmt.Errorf("no results file: pass --results or set results in %s", args[0])
			}
			loc = m.Resolve(m.Results)
		}
		rc, err := store.Open(ctx, loc)
		if err != nil {
			return err
		}
		defer rc.Close()

		n, err := s.Replay(rc)
		if err != nil {
			return fmt.Errorf("%s: %w", loc, err)
		}
		logger.Info("results applied", "file", loc, "applied", n)

		if out != "" {
			if err := s.SaveSnapshot(ctx, out); err != nil {
				return err
			}
		}
		return printSession(cmd.OutOrStdout(), s)
	},
}

func init() {
	applyCmd.Flags().String("results", "", "JSONL results file (local path or s3:// URL)")
	applyCmd.Flags().String("out", "", "write a JSON snapshot to this location")
}
