package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/goexpense/internal/adapter/repository"
	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/infrastructure/auth"
	"github.com/iho/goexpense/internal/infrastructure/config"
	"github.com/iho/goexpense/internal/infrastructure/idgen"
	"github.com/iho/goexpense/internal/infrastructure/logger"
	"github.com/iho/goexpense/internal/usecase"
)

// withStore loads the server configuration and opens its store.
func withStore(ctx context.Context, fn func(cfg *config.Config, users *usecase.UserUseCase) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.StoreDriver == config.DriverMemory {
		return errors.New("the memory store lives inside the server; use a postgres or sqlite STORE_DRIVER")
	}

	st, err := repository.Open(ctx, cfg, cliLogger(cfg), nil)
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(cfg, usecase.NewUserUseCase(st.Users, idgen.NewULID()))
}

func cliLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Output: os.Stderr})
}

func newUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the user directory",
	}

	var input usecase.CreateUserInput
	var role string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user to the directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := domain.ParseRole(role)
			if err != nil {
				return err
			}
			input.Role = r

			return withStore(cmd.Context(), func(_ *config.Config, users *usecase.UserUseCase) error {
				user, err := users.CreateUser(cmd.Context(), input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s <%s> with id %s\n", user.Role, user.Name, user.Email, user.ID)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&input.ID, "id", "", "Identity provider subject (generated when empty)")
	addCmd.Flags().StringVar(&input.Email, "email", "", "Email address")
	addCmd.Flags().StringVar(&input.Name, "name", "", "Display name")
	addCmd.Flags().StringVar(&role, "role", "employee", "employee or manager")
	_ = addCmd.MarkFlagRequired("email")
	_ = addCmd.MarkFlagRequired("name")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(_ *config.Config, users *usecase.UserUseCase) error {
				all, err := users.ListUsers(cmd.Context())
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tROLE\tEMAIL\tNAME")
				for _, u := range all {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Role, u.Email, u.Name)
				}
				return tw.Flush()
			})
		},
	}

	userCmd.AddCommand(addCmd, listCmd)
	return userCmd
}

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue bearer tokens for directory users",
	}

	var email string
	var ttl time.Duration
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for a user with JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(cfg *config.Config, users *usecase.UserUseCase) error {
				if !cfg.AuthEnabled() {
					return errors.New("JWT_SECRET is not set")
				}

				user, err := users.GetUserByEmail(cmd.Context(), email)
				if err != nil {
					return fmt.Errorf("failed to find %s: %w", email, err)
				}

				lifetime := cfg.JWTExpiration
				if ttl > 0 {
					lifetime = ttl
				}
				token, err := auth.NewJWTManager(cfg.JWTSecret, lifetime).Generate(user)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	issueCmd.Flags().StringVar(&email, "email", "", "Email of the user")
	issueCmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_EXPIRATION)")
	_ = issueCmd.MarkFlagRequired("email")

	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the store schema",
	}

	run := func(up bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := repository.Migrate(cfg, up); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s migrations done\n", cfg.StoreDriver)
			return nil
		}
	}

	migrateCmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(true)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", RunE: run(false)},
	)
	return migrateCmd
}
