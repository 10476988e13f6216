package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/sayfoods/sayfoods-api/config"
	"github.com/sayfoods/sayfoods-api/repositories"
	"github.com/sayfoods/sayfoods-api/services"
	"github.com/sayfoods/sayfoods-api/utils"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "sayfoods",
		Short:         "SayFoods API - food ordering and food sharing backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, db)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return err
			}
			log.Info().Msg("Database migration completed successfully")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var userName, phone, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return err
			}
			user, err := createAdmin(cmd.Context(), cfg, db, userName, phone, password)
			if err != nil {
				return err
			}
			log.Info().Str("user_id", user).Str("user_name", userName).Msg("Admin account created")
			return nil
		},
	}

	cmd.Flags().StringVar(&userName, "username", "", "admin username")
	cmd.Flags().StringVar(&phone, "phone", "", "admin phone number")
	cmd.Flags().StringVar(&password, "password", "", "admin password (min 6 characters)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// bootstrap loads configuration, sets up logging and connects to the database
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	utils.SetupLogger(cfg.LogLevel, cfg.IsProduction())

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func createAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB, userName, phone, password string) (string, error) {
	tokens, err := services.NewTokenService(cfg)
	if err != nil {
		return "", err
	}
	accounts := services.NewAccountService(
		repositories.NewAccountRepository(db),
		repositories.NewSessionRepository(db),
		tokens,
		cfg.SessionTTL,
	)

	user, err := accounts.CreateAdmin(ctx, userName, phone, password)
	if err != nil {
		var svcErr *services.Error
		if errors.As(err, &svcErr) {
			return "", errors.New(svcErr.Message)
		}
		return "", err
	}
	return user.ID, nil
}
