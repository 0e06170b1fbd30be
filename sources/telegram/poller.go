package telegram

import (
	"context"
	"modelkiosk/sources/configuration"
	"modelkiosk/sources/locking"
	"modelkiosk/sources/metrics"
	"modelkiosk/sources/tracing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Poller struct {
	bot      *tgbotapi.BotAPI
	log      *tracing.Logger
	config   *configuration.Config
	diplomat *Diplomat
	handler  *TelegramHandler
	gate     *DedupeGate
	runner   *locking.Runner
	metrics  *metrics.MetricsService
}

func NewPoller(bot *tgbotapi.BotAPI, log *tracing.Logger, config *configuration.Config, diplomat *Diplomat, handler *TelegramHandler, gate *DedupeGate, runner *locking.Runner, metrics *metrics.MetricsService) *Poller {
	return &Poller{bot: bot, log: log, config: config, diplomat: diplomat, handler: handler, gate: gate, runner: runner, metrics: metrics}
}

func (x *Poller) Start() {
	update := tgbotapi.NewUpdate(0)
	update.Timeout = x.config.Telegram.PollerTimeout
	update.AllowedUpdates = x.config.Telegram.AllowedUpdates

	for update := range x.bot.GetUpdatesChan(update) {
		msg := update.Message
		if msg == nil {
			continue
		}

		// A standby instance keeps polling so its offset advances, but it
		// must not act on anything: the active instance owns the traffic.
		if !x.runner.IsActive() {
			x.metrics.RecordUpdateIgnored("standby")
			continue
		}

		user := update.SentFrom()
		log := x.log.With(
			tracing.UserId, user.ID,
			tracing.UserName, user.UserName,
			tracing.ChatId, msg.Chat.ID,
			tracing.MessageId, msg.MessageID,
			tracing.UpdateId, update.UpdateID,
		)

		if !x.gate.FirstDelivery(context.Background(), log, int64(update.UpdateID)) {
			x.metrics.RecordUpdateIgnored("duplicate")
			continue
		}

		err := x.handler.HandleMessage(log, msg)
		x.gate.Settle(context.Background(), log, int64(update.UpdateID), err == nil)

		if err != nil {
			x.metrics.RecordUpdateHandled("error")
			x.diplomat.Reply(log, msg, MsgError)
			continue
		}

		x.metrics.RecordUpdateHandled("success")
		log.I("Update handled")
	}
}

func (x *Poller) Stop() {
	x.bot.StopReceivingUpdates()
}
