package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/flios/wechat-bot-chatgpt/internal/logutil"
	"github.com/flios/wechat-bot-chatgpt/internal/relay"
	"github.com/flios/wechat-bot-chatgpt/internal/wechat"
	"github.com/flios/wechat-bot-chatgpt/providers/openai"
)

func newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the WeChat bot and relay chats to the AI backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			secret := strings.TrimSpace(viper.GetString("openai.secret_key"))
			if secret == "" {
				return fmt.Errorf("missing openai.secret_key (set via --openai-secret-key or %s_OPENAI_SECRET_KEY)", envPrefix)
			}

			client := openai.New(
				viper.GetString("openai.endpoint"),
				secret,
				viper.GetDuration("openai.request_timeout"),
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gw, err := wechat.Dial(ctx, viper.GetString("wechat.puppet_url"), logger)
			if err != nil {
				return err
			}

			r, err := relay.New(gw, client, logger, relay.Config{
				HistorySize:         viper.GetInt("wechat.general_chat_message.history_size"),
				DefaultSystemPrompt: viper.GetString("wechat.general_chat_message.default_system_prompt"),
				Model:               viper.GetString("openai.model"),
				RequestTimeout:      viper.GetDuration("openai.request_timeout"),
				TaskTimeout:         viper.GetDuration("relay.task_timeout"),
				MaxConcurrency:      viper.GetInt("relay.max_concurrency"),
				DedupeSize:          viper.GetInt("relay.dedupe_size"),
				Hooks: relay.Hooks{
					OnScan: printLoginQR,
				},
			})
			if err != nil {
				_ = gw.Close()
				return err
			}

			g, runCtx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return r.Run(runCtx)
			})
			g.Go(func() error {
				<-runCtx.Done()
				return gw.Close()
			})
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().String("openai-secret-key", "", "OpenAI API key.")
	cmd.Flags().String("openai-endpoint", "", "OpenAI-compatible endpoint base URL.")
	cmd.Flags().String("openai-model", "", "Chat completion model.")
	cmd.Flags().String("puppet-url", "", "WeChat puppet bridge websocket URL.")
	cmd.Flags().Int("history-size", 16, "Turns kept per conversation window.")
	cmd.Flags().String("default-system-prompt", "", "Default system prompt for new sessions.")
	cmd.Flags().Duration("task-timeout", 0, "Per-message processing timeout.")
	cmd.Flags().Int("max-concurrency", 0, "Max in-flight replies across all chats.")

	_ = viper.BindPFlag("openai.secret_key", cmd.Flags().Lookup("openai-secret-key"))
	_ = viper.BindPFlag("openai.endpoint", cmd.Flags().Lookup("openai-endpoint"))
	_ = viper.BindPFlag("openai.model", cmd.Flags().Lookup("openai-model"))
	_ = viper.BindPFlag("wechat.puppet_url", cmd.Flags().Lookup("puppet-url"))
	_ = viper.BindPFlag("wechat.general_chat_message.history_size", cmd.Flags().Lookup("history-size"))
	_ = viper.BindPFlag("wechat.general_chat_message.default_system_prompt", cmd.Flags().Lookup("default-system-prompt"))
	_ = viper.BindPFlag("relay.task_timeout", cmd.Flags().Lookup("task-timeout"))
	_ = viper.BindPFlag("relay.max_concurrency", cmd.Flags().Lookup("max-concurrency"))

	return cmd
}

// printLoginQR renders the login QR code in the terminal, the same flow the
// wechaty web UI uses.
func printLoginQR(ev wechat.ScanEvent) {
	fmt.Println()
	qrterminal.GenerateHalfBlock(ev.URL, qrterminal.L, os.Stdout)
	fmt.Printf("Scan QR Code to login: %d\nhttps://wechaty.js.org/qrcode/%s\n\n", ev.Status, url.QueryEscape(ev.URL))
}
