package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/log"
)

// historyOptions содержит флаги команды history.
type historyOptions struct {
	*rootOptions
	Chat   int64
	Inline string
	List   bool
}

// newHistoryCommand создает команду вывода сохраненной истории.
func newHistoryCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &historyOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Показать сохраненную историю области",
		Long: `Печатает пространство навигатора области в сохраненном виде:
историю экранов и маркер последнего сообщения.

Examples:
  navigator history --chat 42
  navigator history --chat 42 --inline AAEx
  navigator history --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.List && !cmd.Flags().Changed("chat") {
				return fmt.Errorf("требуется --chat или --list")
			}
			return runHistory(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int64Var(&opts.Chat, "chat", 0, "идентификатор чата")
	cmd.Flags().StringVar(&opts.Inline, "inline", "", "идентификатор inline-сообщения")
	cmd.Flags().BoolVar(&opts.List, "list", false, "перечислить ключи сохраненных областей")

	return cmd
}

func runHistory(ctx context.Context, opts *historyOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	backend, provider, err := openStorage(ctx, cfg.Storage, log.Discard())
	if err != nil {
		return err
	}
	defer backend.Close()

	if opts.List {
		keys, err := provider.Keys(ctx)
		if err != nil {
			return fmt.Errorf("не удалось получить список областей: %w", err)
		}
		for _, key := range keys {
			fmt.Fprintln(out, key)
		}
		return nil
	}

	key := domain.ScopeKey{Chat: opts.Chat, Inline: opts.Inline}
	raw, err := provider.Raw(ctx, key)
	if err != nil {
		return fmt.Errorf("не удалось загрузить историю: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("история области %s не найдена", key)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return fmt.Errorf("не удалось отформатировать документ: %w", err)
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(out)
	return err
}
