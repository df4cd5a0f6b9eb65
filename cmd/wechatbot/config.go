package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	OpenAI struct {
		Endpoint       string `yaml:"endpoint"`
		SecretKey      string `yaml:"secret_key"`
		Model          string `yaml:"model"`
		RequestTimeout string `yaml:"request_timeout"`
	} `yaml:"openai"`
	WeChat struct {
		PuppetURL          string `yaml:"puppet_url"`
		GeneralChatMessage struct {
			HistorySize         int    `yaml:"history_size"`
			DefaultSystemPrompt string `yaml:"default_system_prompt"`
		} `yaml:"general_chat_message"`
	} `yaml:"wechat"`
	Relay struct {
		TaskTimeout    string `yaml:"task_timeout"`
		MaxConcurrency int    `yaml:"max_concurrency"`
		DedupeSize     int    `yaml:"dedupe_size"`
	} `yaml:"relay"`
	Logging struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		AddSource bool   `yaml:"add_source"`
	} `yaml:"logging"`
}

func defaultFileConfig() fileConfig {
	var cfg fileConfig
	cfg.OpenAI.Endpoint = "https://api.openai.com"
	cfg.OpenAI.SecretKey = ""
	cfg.OpenAI.Model = "gpt-3.5-turbo"
	cfg.OpenAI.RequestTimeout = "90s"
	cfg.WeChat.PuppetURL = "ws://127.0.0.1:8788/ws"
	cfg.WeChat.GeneralChatMessage.HistorySize = 16
	cfg.WeChat.GeneralChatMessage.DefaultSystemPrompt = "You are a helpful assistant."
	cfg.Relay.TaskTimeout = "2m"
	cfg.Relay.MaxConcurrency = 5
	cfg.Relay.DedupeSize = 1024
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", output)
				}
			}
			raw, err := yaml.Marshal(defaultFileConfig())
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, raw, 0o600); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().String("output", "config.yaml", "Where to write the config file.")
	cmd.Flags().Bool("force", false, "Overwrite an existing file.")
	return cmd
}
