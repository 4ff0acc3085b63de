package cmd

import (
	"context"
	"fmt"
	"log"

	"pim-sync/core/config"
	"pim-sync/core/database"
	"pim-sync/core/logger"
	"pim-sync/core/reconcile"
	"pim-sync/core/record"
	"pim-sync/core/server"
	"pim-sync/core/storage"
	"pim-sync/feature/localstore"
	"pim-sync/feature/remotestore"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// syncCmd runs one reconciliation pass from the command line.
var syncCmd = &cobra.Command{
	Use:       "sync [calendar|contacts]",
	Short:     "Run a single sync pass for the given record kind",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"calendar", "contacts"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}

		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		runner, err := newSyncRunner(cfg, logg)
		if err != nil {
			return err
		}

		summary, err := runner(cmd.Context(), kind)
		if summary != nil {
			printSyncReport(logg, kind, summary)
		}
		return err
	},
}

func parseKind(s string) (record.Kind, error) {
	switch s {
	case "calendar":
		return record.KindEvent, nil
	case "contacts":
		return record.KindContact, nil
	}
	return "", fmt.Errorf("unknown record kind %q, expected calendar or contacts", s)
}

// newSyncRunner connects the two stores once and returns a runner that
// builds kind-scoped adapters and executes the engine.
func newSyncRunner(cfg *config.Config, logg *zap.Logger) (server.SyncFunc, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect local database: %w", err)
	}
	if err := localstore.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate local database: %w", err)
	}

	store, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return func(ctx context.Context, kind record.Kind) (*reconcile.Summary, error) {
		return runSync(ctx, cfg, db, store, kind, logg)
	}, nil
}

func runSync(ctx context.Context, cfg *config.Config, db *gorm.DB, store storage.Client, kind record.Kind, logg *zap.Logger) (*reconcile.Summary, error) {
	opts, err := cfg.Sync.Options(kind)
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Sync.Policy()
	if err != nil {
		return nil, err
	}

	local := localstore.New(db, kind, opts.Scope, logg)
	remote := remotestore.New(store, cfg.Storage.Bucket, kind, opts.Scope, logg)

	engine := reconcile.NewEngine(local, remote, reconcile.NewIdentityStore(), policy, opts, logg)
	return engine.Run(ctx)
}

func printSyncReport(logg *zap.Logger, kind record.Kind, s *reconcile.Summary) {
	logg.Info("sync finished",
		zap.String("kind", string(kind)),
		zap.Int("local_records", s.LocalRecords),
		zap.Int("remote_records", s.RemoteRecords),
		zap.Int("matched", s.Matched),
		zap.Int("skipped", s.Skipped),
		zap.Int("created_local", s.CreatedLocal),
		zap.Int("created_remote", s.CreatedRemote),
		zap.Int("updated_local", s.UpdatedLocal),
		zap.Int("updated_remote", s.UpdatedRemote),
		zap.Int("deleted_local", s.DeletedLocal),
		zap.Int("deleted_remote", s.DeletedRemote),
		zap.Int("conflicts", s.Conflicts),
		zap.Int("errors", len(s.Errors)),
		zap.Bool("cancelled", s.Cancelled),
		zap.Duration("duration", s.Duration),
	)
	for _, msg := range s.Errors {
		logg.Warn("record error", zap.String("error", msg))
	}
}

func init() {
	RootCmd.AddCommand(syncCmd)
}
