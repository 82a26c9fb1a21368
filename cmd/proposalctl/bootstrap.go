package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nurpe/proposals/internal/access"
	"github.com/nurpe/proposals/internal/auth"
	"github.com/nurpe/proposals/internal/repository"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap-admin",
	Short: "Create an active admin account",
	Long:  "Creates the first admin account directly in the database. Further accounts should be invited through the API.",
	RunE:  runBootstrap,
}

var (
	bootstrapEmail    string
	bootstrapPassword string
	bootstrapName     string
)

func init() {
	bootstrapCmd.Flags().StringVar(&bootstrapEmail, "email", "", "Admin email (required)")
	bootstrapCmd.Flags().StringVar(&bootstrapPassword, "password", "", "Admin password, at least 8 characters (required)")
	bootstrapCmd.Flags().StringVar(&bootstrapName, "name", "", "Display name (required)")
	_ = bootstrapCmd.MarkFlagRequired("email")
	_ = bootstrapCmd.MarkFlagRequired("password")
	_ = bootstrapCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}

	profiles := repository.NewProfileRepository(e.db)
	gate := access.NewGate(access.ProfileSource(profiles), access.TeamMemberSource(profiles))
	accounts := access.NewAccounts(profiles, gate, auth.NewParser(e.cfg.Auth.AccessSecret), access.NewLogMailer(e.log), access.AccountsConfig{
		AccessTTL:  e.cfg.Auth.AccessTTL,
		InviteTTL:  e.cfg.Auth.InviteTTL,
		BcryptCost: e.cfg.Auth.BcryptCost,
	}, e.log)

	profile, err := accounts.BootstrapAdmin(cmd.Context(), access.BootstrapRequest{
		Email:    bootstrapEmail,
		Password: bootstrapPassword,
		Name:     bootstrapName,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", profile.Email, profile.ID)
	return nil
}
