// Command proposalctl runs maintenance tasks against the proposal database.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/nurpe/proposals/internal/config"
	"github.com/nurpe/proposals/internal/db"
	"github.com/nurpe/proposals/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "proposalctl",
	Short:         "Proposal service maintenance tool",
	Long:          "proposalctl bootstraps admin accounts and renders the active proposal without going through the HTTP API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

type env struct {
	cfg *config.Config
	log zerolog.Logger
	db  *gorm.DB
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Environment)
	database, err := db.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &env{cfg: cfg, log: log, db: database}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
