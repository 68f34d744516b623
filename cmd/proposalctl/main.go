// Command proposalctl выполняет служебные операции сервиса предложений: миграции,
// проверка целостности подписей и выпуск токенов для разработки.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ignatzorin/proposal-engine/internal/logger"
)

const appName = "proposalctl"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Служебные команды сервиса коммерческих предложений",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logLevel)
			logger.SetTextFormatter()
			logger.Log.SetOutput(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Уровень логов (debug, info, warn, error)")

	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(verifyCmd())
	cmd.AddCommand(tokenCmd())

	return cmd
}
