package telegram

import (
	"modelkiosk/sources/configuration"
	"modelkiosk/sources/platform"
	"modelkiosk/sources/tracing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func NewBotAPI(log *tracing.Logger, config *configuration.Config) *tgbotapi.BotAPI {
	if err := platform.ValidateTelegramBotToken(config.Telegram.BotToken); err != nil {
		log.F("Telegram bot token is misconfigured", tracing.InnerError, err)
	}

	bot, err := tgbotapi.NewBotAPI(config.Telegram.BotToken)
	if err != nil {
		log.F("Failed to initialize telegram bot", tracing.InnerError, err)
	}

	if config.Telegram.APIEndpoint != "" {
		bot.SetAPIEndpoint(config.Telegram.APIEndpoint)
		log.I("Telegram bot initialized with custom API endpoint", "api_endpoint", config.Telegram.APIEndpoint)
	} else {
		log.I("Telegram bot initialized with default API endpoint")
	}

	return bot
}
