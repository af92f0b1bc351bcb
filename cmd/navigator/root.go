package main

import (
	"github.com/spf13/cobra"
)

// rootOptions содержит глобальные флаги всех команд.
type rootOptions struct {
	ConfigPath string
}

// newRootCommand создает корневую команду CLI.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "navigator",
		Short: "Навигатор экранов для Telegram-ботов",
		Long: `Навигатор хранит историю экранов каждого чата и переходит между ними,
редактируя уже отправленные сообщения вместо отправки новых.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "config.yml", "путь к файлу конфигурации")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))

	return cmd
}
