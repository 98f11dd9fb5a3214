package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/edgard/chatinsight/internal/api"
	"github.com/edgard/chatinsight/internal/bot"
	"github.com/edgard/chatinsight/internal/bot/handlers"
	"github.com/edgard/chatinsight/internal/bot/tasks"
	"github.com/edgard/chatinsight/internal/logger"
	"github.com/edgard/chatinsight/internal/query"
	"github.com/edgard/chatinsight/internal/service"
	"github.com/edgard/chatinsight/internal/telegram"
)

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "chatinsight",
		Short: "Answer questions about group chat transcripts",
		Long: `chatinsight imports WhatsApp chat exports and records Telegram groups,
then answers natural-language questions about them: who is most active,
what was said on a day or by someone, the mood and topics of the group.

Questions the analytics cannot answer directly go to Gemini when an API key
is configured, and get a keyword summary otherwise.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file (default ./config.yaml)")

	root.AddCommand(
		newServeCommand(opts),
		newImportCommand(opts),
		newAskCommand(opts),
		newSummarizeCommand(opts),
		newActivityCommand(opts),
		newSentimentCommand(opts),
		newGroupsCommand(opts),
	)
	return root
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the scheduled tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.configPath, os.Stdout)
			if err != nil {
				return err
			}
			defer a.Close()
			log := a.log

			var httpServer *api.Server
			if a.cfg.HTTP.Enabled {
				httpServer = api.NewServer(api.Deps{
					Service: a.service,
					Store:   a.store,
					Metrics: a.metrics.Handler(),
					Logger:  log,
				}, a.cfg.HTTP)
			}

			var tg *tgbot.Bot
			if a.cfg.Telegram.Enabled {
				hDeps := handlers.HandlerDeps{Logger: log, Config: &a.cfg.Telegram, Service: a.service}
				tg, err = telegram.NewTelegramBot(a.cfg.Telegram.Token, log,
					tgbot.WithMiddlewares(logger.Middleware(log)),
					tgbot.WithDefaultHandler(handlers.NewRecordHandler(hDeps)),
				)
				if err != nil {
					return err
				}

				cmdHandlers := handlers.RegisterAllCommands(hDeps)
				if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
					return err
				}
				if err := telegram.PublishCommands(ctx, tg, handlers.BotCommands(cmdHandlers)); err != nil {
					log.Warn("Failed to publish bot commands", "error", err)
				}
			}

			if httpServer == nil && tg == nil {
				return errors.New("nothing to serve: enable http or telegram in the configuration")
			}

			tDeps := tasks.TaskDeps{Logger: log, Store: a.store, Config: &a.cfg.Scheduler}
			sched, err := bot.NewScheduler(log, tasks.Schedules(a.cfg.Scheduler), tasks.RegisterAllTasks(tDeps))
			if err != nil {
				return err
			}

			return bot.NewBot(log, a.cfg, tg, httpServer, sched).Run(ctx)
		},
	}
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "import <export.txt>",
		Short: "Import a WhatsApp chat export",
		Long: `Import a WhatsApp chat export (.txt) into a group.

The group is named after the file unless --group is given. Importing into an
existing group replaces its messages.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			g, err := a.service.Import(cmd.Context(), service.TransportCLI, filepath.Base(args[0]), group, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d messages into group %q\n", g.MessageCount, g.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "Group name (default derived from the file name)")
	return cmd
}

func newAskCommand(opts *rootOptions) *cobra.Command {
	var (
		start, end string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "ask <group> <question>",
		Short: "Ask a question about a stored group",
		Example: `  chatinsight ask "Project Team" "who is the most active user?"
  chatinsight ask "Project Team" "what was the mood?" --start 2024-03-01 --end 2024-03-31`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := query.Request{Question: args[1]}
			var err error
			if req.Start, err = optionalDate(start); err != nil {
				return err
			}
			if req.End, err = optionalDate(end); err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.service.Ask(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Answer)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First day to consider (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day to consider (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the full response as JSON")
	return cmd
}

func optionalDate(s string) (*query.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := query.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func newGroupsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List stored groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			groups, err := a.service.Groups(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSOURCE\tMESSAGES\tUPDATED")
			for _, g := range groups {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", g.Name, g.Source, g.MessageCount, g.UpdatedAt.UTC().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}
