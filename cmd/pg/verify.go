package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/proofgraph/internal/verifier"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <manifest> [-- verifier-args...]",
	Short: "Run the verifier and apply its results as they arrive",
	Long: `Builds the graph from the manifest, then runs the verifier
(PROOFGRAPH_VERIFIER, or --shell) and applies each result it prints.
The verifier sees the manifest location in PROOFGRAPH_MANIFEST and the run
id in PROOFGRAPH_RUN.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shell, _ := cmd.Flags().GetString("shell")
		out, _ := cmd.Flags().GetString("out")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		s, _, err := openSession(ctx, args[0])
		if err != nil {
			return err
		}
		defer s.Close()

		r := &verifier.Runner{Command: cfg.Verifier, Args: args[1:]}
		if shell != "" {
			r = verifier.Shell(shell)
		}
		r.Timeout = cfg.VerifierTimeout
		r.Env = map[string]string{
			"PROOFGRAPH_MANIFEST": args[0],
			"PROOFGRAPH_RUN":      s.RunID,
		}

		w := cmd.OutOrStdout()
		p := palette()
		verr := s.Verify(ctx, r, func(res verifier.Result) {
			if jsonOutput {
				return
			}
			fmt.Fprintf(w, "Query %d %s\n", res.Query, p.Status(res.Outcome))
		})

		// Keep whatever was applied even when the verifier failed.
		if out != "" {
			if err := s.SaveSnapshot(context.Background(), out); err != nil {
				return err
			}
		}
		if err := printSession(w, s); err != nil {
			return err
		}
		return verr
	},
}

func init() {
	verifyCmd.Flags().String("shell", "", "run this shell command instead of PROOFGRAPH_VERIFIER")
	verifyCmd.Flags().String("out", "", "write a JSON snapshot to this location")
}
