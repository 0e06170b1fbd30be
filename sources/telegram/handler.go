package telegram

import (
	"modelkiosk/sources/catalog"
	"modelkiosk/sources/configuration"
	"modelkiosk/sources/maintenance"
	"modelkiosk/sources/metrics"
	"modelkiosk/sources/payments"
	"modelkiosk/sources/persistence/entities"
	"modelkiosk/sources/platform"
	"modelkiosk/sources/pricing"
	"modelkiosk/sources/repository"
	"modelkiosk/sources/throttler"
	"modelkiosk/sources/tracing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramHandler struct {
	config      *configuration.Config
	diplomat    *Diplomat
	users       *repository.UsersRepository
	generations *repository.GenerationsRepository
	charges     *repository.ChargesRepository
	coordinator *payments.Coordinator
	registry    *catalog.Registry
	resolver    *pricing.Resolver
	freeTier    *pricing.FreeTier
	throttler   *throttler.Throttler
	sweeper     *maintenance.Sweeper
	metrics     *metrics.MetricsService
}

func NewTelegramHandler(
	config *configuration.Config,
	diplomat *Diplomat,
	users *repository.UsersRepository,
	generations *repository.GenerationsRepository,
	charges *repository.ChargesRepository,
	coordinator *payments.Coordinator,
	registry *catalog.Registry,
	resolver *pricing.Resolver,
	freeTier *pricing.FreeTier,
	throttler *throttler.Throttler,
	sweeper *maintenance.Sweeper,
	metrics *metrics.MetricsService,
) *TelegramHandler {
	return &TelegramHandler{
		config:      config,
		diplomat:    diplomat,
		users:       users,
		generations: generations,
		charges:     charges,
		coordinator: coordinator,
		registry:    registry,
		resolver:    resolver,
		freeTier:    freeTier,
		throttler:   throttler,
		sweeper:     sweeper,
		metrics:     metrics,
	}
}

func (x *TelegramHandler) HandleMessage(log *tracing.Logger, msg *tgbotapi.Message) error {
	defer tracing.ProfilePoint(log, "Telegram handler message completed", "telegram.handler.message")()
	log.I("Got message")

	user, err := x.user(log, msg)
	if err != nil {
		log.E("Error getting or creating user", tracing.InnerError, err)
		return err
	}

	if !platform.BoolValue(user.IsActive, true) {
		log.W("Inactive user, ignoring")
		x.metrics.RecordUpdateIgnored("inactive_user")
		return nil
	}

	if !msg.IsCommand() {
		if msg.Chat.IsPrivate() {
			x.diplomat.Reply(log, msg, MsgHelp)
		}
		return nil
	}

	log = log.With(tracing.CommandIssued, msg.Command())
	x.metrics.RecordCommandUsed(msg.Command())

	switch msg.Command() {
	case "start":
		x.HandleStartCommand(log, user, msg)
	case "help":
		x.diplomat.Reply(log, msg, MsgHelp)
	case "models":
		x.HandleModelsCommand(log, user, msg)
	case "price":
		x.HandlePriceCommand(log, user, msg)
	case "balance":
		x.HandleBalanceCommand(log, user, msg)
	case "generate":
		x.HandleGenerateCommand(log, user, msg)
	case "history":
		x.HandleHistoryCommand(log, user, msg)
	case "topup":
		x.HandleTopupCommand(log, user, msg)
	case "grant":
		x.HandleGrantCommand(log, user, msg)
	case "stats":
		x.HandleStatsCommand(log, user, msg)
	case "retention":
		x.HandleRetentionCommand(log, user, msg)
	default:
		x.diplomat.Reply(log, msg, MsgUnknownCommand)
	}

	return nil
}

func (x *TelegramHandler) user(log *tracing.Logger, msg *tgbotapi.Message) (*entities.User, error) {
	var uname, ufullname *string
	if msg.From.UserName != "" {
		uname = &msg.From.UserName
	}
	fullname := msg.From.FirstName
	if msg.From.LastName != "" {
		fullname += " " + msg.From.LastName
	}
	if fullname != "" {
		ufullname = &fullname
	}

	return x.users.UpsertUser(log, msg.From.ID, uname, ufullname)
}
