package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	viper.SetDefault("openai.endpoint", "https://api.openai.com")
	viper.SetDefault("openai.secret_key", "")
	viper.SetDefault("openai.model", "gpt-3.5-turbo")
	viper.SetDefault("openai.request_timeout", 90*time.Second)

	viper.SetDefault("wechat.puppet_url", "ws://127.0.0.1:8788/ws")
	viper.SetDefault("wechat.general_chat_message.history_size", 16)
	viper.SetDefault("wechat.general_chat_message.default_system_prompt", "You are a helpful assistant.")

	viper.SetDefault("relay.task_timeout", 2*time.Minute)
	viper.SetDefault("relay.max_concurrency", 5)
	viper.SetDefault("relay.dedupe_size", 1024)

	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
	viper.SetDefault("trace", false)
}
