// Command cryostore manages frozen datasets: cohort catalogs, their
// typed globals, and remote object-store synchronization.
package main

import (
	"fmt"
	"os"

	"cryostore/internal/config"
	"cryostore/internal/freezer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	baseDir    string
	verbose    bool

	// Loaded at startup
	cfg    config.Config
	mgr    *freezer.Manager
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cryostore",
	Short: "Local-first persistence for frozen scientific datasets",
	Long: `cryostore gives expensive-to-build scientific datasets a durable local
home (relational + columnar + key/value storage per namespace) and syncs
them with an S3-compatible object store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		path := configPath
		if path == "" {
			if path, err = config.DefaultPath(); err != nil {
				return err
			}
		}
		if cfg, err = config.Load(path); err != nil {
			return err
		}
		if baseDir != "" {
			cfg.BaseDir = baseDir
		}
		if mgr, err = freezer.NewManager(cfg.Freezer()); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.cryostore.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseDir, "basedir", "", "override the storage root directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(cohortCmd, globalsCmd, cloudCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
