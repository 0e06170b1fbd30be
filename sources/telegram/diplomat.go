package telegram

import (
	"modelkiosk/sources/configuration"
	"modelkiosk/sources/metrics"
	"modelkiosk/sources/texting"
	"modelkiosk/sources/texting/transform"
	"modelkiosk/sources/tracing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Diplomat struct {
	bot     *tgbotapi.BotAPI
	config  *configuration.Config
	metrics *metrics.MetricsService
}

func NewDiplomat(bot *tgbotapi.BotAPI, config *configuration.Config, metrics *metrics.MetricsService) *Diplomat {
	return &Diplomat{bot: bot, config: config, metrics: metrics}
}

func (x *Diplomat) Reply(log *tracing.Logger, msg *tgbotapi.Message, text string) {
	defer tracing.ProfilePoint(log, "Diplomat reply completed", "diplomat.reply")()

	for _, chunk := range transform.Chunks(text, x.config.Telegram.DiplomatChunkSize) {
		chattable := tgbotapi.NewMessage(msg.Chat.ID, texting.EscapeMarkdown(chunk))
		chattable.ReplyToMessageID = msg.MessageID
		chattable.ParseMode = tgbotapi.ModeMarkdownV2

		if _, err := x.bot.Send(chattable); err != nil {
			log.E("Message chunk sending error", tracing.InnerError, err)
			x.metrics.RecordMessageSent("error")
			break
		}
		x.metrics.RecordMessageSent("success")
	}
}

func (x *Diplomat) SendText(log *tracing.Logger, chatID int64, text string) error {
	defer tracing.ProfilePoint(log, "Diplomat send text completed", "diplomat.send_text")()

	for _, chunk := range transform.Chunks(text, x.config.Telegram.DiplomatChunkSize) {
		msg := tgbotapi.NewMessage(chatID, texting.EscapeMarkdown(chunk))
		msg.ParseMode = tgbotapi.ModeMarkdownV2

		if _, err := x.bot.Send(msg); err != nil {
			log.E("Message chunk sending error", tracing.InnerError, err)
			x.metrics.RecordMessageSent("error")
			return err
		}
		x.metrics.RecordMessageSent("success")
	}
	return nil
}

// SendResults delivers generation output. Result urls go out as photo
// attachments; Telegram fetches the urls itself.
func (x *Diplomat) SendResults(log *tracing.Logger, msg *tgbotapi.Message, urls []string) {
	defer tracing.ProfilePoint(log, "Diplomat send results completed", "diplomat.send_results")()

	for _, url := range urls {
		photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileURL(url))
		photo.ReplyToMessageID = msg.MessageID

		if _, err := x.bot.Send(photo); err != nil {
			log.E("Result sending error", tracing.InnerError, err, "url", url)
			x.metrics.RecordMessageSent("error")

			fallback := tgbotapi.NewMessage(msg.Chat.ID, texting.EscapeMarkdown(url))
			fallback.ReplyToMessageID = msg.MessageID
			fallback.ParseMode = tgbotapi.ModeMarkdownV2
			if _, err := x.bot.Send(fallback); err != nil {
				log.E("Failed to send fallback url message", tracing.InnerError, err)
			}
			continue
		}
		x.metrics.RecordMessageSent("success")
	}
}

func (x *Diplomat) SendTyping(log *tracing.Logger, chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadPhoto)
	if _, err := x.bot.Send(action); err != nil {
		log.W("Failed to send chat action", tracing.InnerError, err)
	}
}
