package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/proposal-engine/internal/app"
	"github.com/ignatzorin/proposal-engine/internal/config"
	"github.com/ignatzorin/proposal-engine/internal/db"
	"github.com/ignatzorin/proposal-engine/internal/service"
	"github.com/ignatzorin/proposal-engine/internal/usecase/signature"
)

var errIntegrity = errors.New("найдены подписи, не совпадающие с документом версии")

func migrateCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Применить SQL-миграции из MIGRATIONS_PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			conn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()

			out := cmd.OutOrStdout()
			if dryRun {
				pending, err := db.PendingMigrations(ctx, conn, cfg.MigrationsPath)
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(out, "Все миграции применены")
					return nil
				}
				for _, name := range pending {
					fmt.Fprintf(out, "ожидает: %s\n", name)
				}
				return nil
			}

			applied, err := db.RunMigrations(ctx, conn, cfg.MigrationsPath)
			if err != nil {
				return err
			}
			for _, name := range applied {
				fmt.Fprintf(out, "применена: %s\n", name)
			}
			fmt.Fprintf(out, "Готово, применено миграций: %d\n", len(applied))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Только показать неприменённые миграции")
	return cmd
}

func verifyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify-signatures <proposal-id>",
		Short: "Сверить хэши подписей предложения с документами версий",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposalID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("некорректный id предложения: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			conn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()

			repos := app.PostgresRepositories(conn)
			reports, err := signature.NewVerifyIntegrityUseCase(repos.Proposals, repos.Versions, repos.Signatures).
				Execute(ctx, proposalID)
			if err != nil {
				return err
			}
			return printReports(cmd, reports, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Вывод в JSON")
	return cmd
}

func printReports(cmd *cobra.Command, reports []signature.IntegrityReport, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else {
		if len(reports) == 0 {
			fmt.Fprintln(out, "Подписей нет")
		}
		for _, r := range reports {
			state := "OK"
			if !r.Valid {
				state = "НЕСОВПАДЕНИЕ"
			}
			fmt.Fprintf(out, "%s  подпись=%s версия=%s подписант=%s\n", state, r.SignatureID, r.VersionID, r.SignerEmail)
		}
	}

	for _, r := range reports {
		if !r.Valid {
			return errIntegrity
		}
	}
	return nil
}

func tokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Выпустить access-токен владельца для локальной разработки",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("выпуск токенов запрещён в production")
			}

			id := uuid.New()
			if userID != "" {
				if id, err = uuid.Parse(userID); err != nil {
					return fmt.Errorf("некорректный --user: %w", err)
				}
			}
			if ttl <= 0 {
				ttl = cfg.AccessTokenTTL
			}

			token, exp, err := service.NewTokenManager(cfg.JWTSecret, ttl).GenerateAccess(id, role)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "пользователь %s, действует до %s\n", id, exp.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "UUID владельца (по умолчанию случайный)")
	cmd.Flags().StringVar(&role, "role", "owner", "Роль в токене")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Срок жизни (по умолчанию ACCESS_TOKEN_TTL)")
	return cmd
}
