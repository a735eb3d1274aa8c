package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/proofgraph/internal/config"
	"github.com/alfredjeanlab/proofgraph/internal/events"
	"github.com/alfredjeanlab/proofgraph/internal/source"
	"github.com/alfredjeanlab/proofgraph/internal/workflow"
)

var (
	jsonOutput bool
	runID      string

	cfg       *config.Config
	logger    *slog.Logger
	store     *source.Mux
	publisher events.Publisher
)

var rootCmd = &cobra.Command{
	Use:           "pg <command>",
	Short:         "Build and verify proof graphs from query plans",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger = cfg.Logger(cmd.ErrOrStderr())
		slog.SetDefault(logger)

		store = &source.Mux{
			Files: source.FileStore{},
			NewS3: func(ctx context.Context) (source.Store, error) {
				s3, err := source.NewS3Store(ctx, cfg.S3Region, cfg.S3Endpoint)
				if err != nil {
					return nil, err
				}
				return s3, nil
			},
		}

		publisher = &events.NoopPublisher{}
		if cfg.NATSURL != "" && cmd.Name() != watchCmd.Name() {
			p, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}
			publisher = p
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Warn("closing publisher", "error", err)
			}
		}
	},
}

// openSession loads the manifest at location into a new session.
func openSession(ctx context.Context, location string) (*workflow.Session, *workflow.Manifest, error) {
	m, err := workflow.LoadManifest(ctx, store, location)
	if err != nil {
		return nil, nil, err
	}
	s, err := workflow.NewSession(ctx, workflow.Options{
		Layout:    cfg.Layout,
		Publisher: publisher,
		Store:     store,
		RunID:     runID,
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, err
	}
	// Skipped plan nodes are logged by the parser.
	if _, err := s.Load(ctx, m); err != nil {
		s.Close()
		return nil, nil, err
	}
	return s, m, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&runID, "run", "", "run id for published events (default: generated)")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
