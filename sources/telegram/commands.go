package telegram

import (
	"context"
	"fmt"
	"strings"
	"modelkiosk/sources/payments"
	"modelkiosk/sources/persistence/entities"
	"modelkiosk/sources/pricing"
	"modelkiosk/sources/texting"
	"modelkiosk/sources/texting/format"
	"modelkiosk/sources/texting/transform"
	"modelkiosk/sources/tracing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

func (x *TelegramHandler) HandleStartCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	var b strings.Builder
	b.WriteString(MsgWelcome)
	b.WriteString("\n\nFree models right now:\n")
	for _, id := range x.freeTier.IDs() {
		b.WriteString("• " + id + "\n")
	}

	x.diplomat.Reply(log, msg, b.String())
}

func (x *TelegramHandler) HandleModelsCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	var b strings.Builder
	b.WriteString("Models:\n")

	for _, model := range x.registry.EnabledModels() {
		price, basis := x.resolver.Effective(model.Pricing)

		label := MsgModelFree
		if !x.freeTier.Contains(model.ID) && basis != "none" && price.IsPositive() {
			label = format.Decimalify(price) + " ₽"
		}

		b.WriteString(fmt.Sprintf("• %s — %s\n", model.ID, label))
	}

	x.diplomat.Reply(log, msg, b.String())
}

func (x *TelegramHandler) HandlePriceCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	modelID := strings.TrimSpace(msg.CommandArguments())
	if modelID == "" {
		x.diplomat.Reply(log, msg, MsgPriceUsage)
		return
	}

	if !x.registry.Has(modelID) {
		x.diplomat.Reply(log, msg, MsgModelUnknown)
		return
	}

	price, basis, err := x.resolver.EffectiveFor(x.registry, modelID)
	if err != nil {
		log.E("Failed to resolve price", tracing.InnerError, err, tracing.ModelId, modelID)
		x.diplomat.Reply(log, msg, MsgError)
		return
	}

	if x.freeTier.Contains(modelID) || basis == "none" || !price.IsPositive() {
		x.diplomat.Reply(log, msg, fmt.Sprintf("%s is free to use.", modelID))
		return
	}

	reply := fmt.Sprintf("%s costs %s ₽ per generation.", modelID, format.Decimalify(price))
	if basis == pricing.BasisForeign {
		if priceModel, err := x.registry.PriceModel(modelID); err == nil {
			reply += fmt.Sprintf(" Upstream price: %s.", texting.CurrencifyDecimal(priceModel.Usd()))
		}
	}

	x.diplomat.Reply(log, msg, reply)
}

func (x *TelegramHandler) HandleBalanceCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Balance: %s ₽\n", format.Decimalify(user.Balance)))
	if user.ReferralFreeUses > 0 {
		b.WriteString(fmt.Sprintf("Referral credits: %s\n", format.Numberify(int64(user.ReferralFreeUses))))
	}

	x.diplomat.Reply(log, msg, b.String())
}

func (x *TelegramHandler) HandleGenerateCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	parts := strings.SplitN(args, " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		x.diplomat.Reply(log, msg, MsgGenerateUsage)
		return
	}
	modelID, prompt := parts[0], strings.TrimSpace(parts[1])

	if !x.registry.Has(modelID) {
		x.diplomat.Reply(log, msg, MsgModelUnknown)
		return
	}

	if !x.throttler.IsAllowed(msg.From.ID) {
		log.W("User exceeded rate throttler")
		x.diplomat.Reply(log, msg, MsgThrottleExceeded)
		return
	}

	x.diplomat.SendTyping(log, msg.Chat.ID)

	// Message ids are stable per chat, so a redelivered update maps to the
	// same charge transaction and replays instead of debiting again.
	txID := fmt.Sprintf("charge_%d_%d_%d", msg.From.ID, msg.Chat.ID, msg.MessageID)
	outcome, err := x.coordinator.Generate(context.Background(), log, msg.From.ID, modelID, prompt, txID)
	if err != nil {
		if err == payments.ErrInstanceInactive {
			x.diplomat.Reply(log, msg, MsgStandby)
			return
		}
		log.E("Generation flow failed", tracing.InnerError, err)
		x.diplomat.Reply(log, msg, MsgError)
		return
	}

	x.metrics.RecordGenerationSettled(modelID, outcome.Status)
	x.replyOutcome(log, msg, outcome)
}

func (x *TelegramHandler) replyOutcome(log *tracing.Logger, msg *tgbotapi.Message, outcome *payments.Outcome) {
	switch outcome.Status {
	case payments.PaymentInsufficient:
		x.diplomat.Reply(log, msg, MsgInsufficient)
		return
	case payments.PaymentAlreadyCommitted:
		// A redelivered request that was already settled. Nothing failed and
		// nothing new was charged.
		if !outcome.Success {
			x.diplomat.Reply(log, msg, MsgGenerationReplayed)
			return
		}
	case payments.PaymentRefunded, payments.PaymentFailed, payments.PaymentReferralFreeFailed:
		if !outcome.Success {
			x.diplomat.Reply(log, msg, MsgGenerationFailed)
			return
		}
	}

	if !outcome.Success {
		x.diplomat.Reply(log, msg, MsgGenerationFailed)
		return
	}

	x.diplomat.SendResults(log, msg, outcome.ResultURLs)

	switch outcome.Status {
	case payments.PaymentCharged:
		x.diplomat.Reply(log, msg, fmt.Sprintf("Charged %s ₽.", format.Decimalify(outcome.Amount)))
	case payments.PaymentReferralFree:
		x.diplomat.Reply(log, msg, "Covered by a referral credit.")
	case payments.PaymentAlreadyCommitted:
		x.diplomat.Reply(log, msg, MsgGenerationReplayed)
	}
}

func (x *TelegramHandler) HandleHistoryCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	generations, err := x.generations.GetRecentByUser(log, msg.From.ID, 10)
	if err != nil {
		log.E("Failed to get history", tracing.InnerError, err)
		x.diplomat.Reply(log, msg, MsgError)
		return
	}

	if len(generations) == 0 {
		x.diplomat.Reply(log, msg, MsgHistoryEmpty)
		return
	}

	var b strings.Builder
	b.WriteString("Recent generations:\n")
	for _, g := range generations {
		verdict := "ok"
		if !g.Success {
			verdict = "failed"
		}
		cost := g.CostBasis
		if g.CostBasis == payments.PaymentCharged {
			cost = format.Decimalify(g.Amount) + " ₽"
		}
		b.WriteString(fmt.Sprintf("• %s — %s, %s\n", g.ModelID, verdict, cost))
		if !g.Success && g.Message != "" {
			b.WriteString("  " + transform.SmartTruncate(g.Message, 80) + "\n")
		}
	}

	x.diplomat.Reply(log, msg, b.String())
}

func (x *TelegramHandler) HandleTopupCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	if !x.isAdmin(msg.From.ID) {
		x.diplomat.Reply(log, msg, MsgNoAccess)
		return
	}

	var cmd TopupCmd
	if _, err := x.ParseKongCommand(log, msg, &cmd); err != nil {
		x.diplomat.Reply(log, msg, MsgTopupUsage)
		return
	}

	amount, err := decimal.NewFromString(cmd.Amount)
	if err != nil || !amount.IsPositive() {
		x.diplomat.Reply(log, msg, MsgTopupUsage)
		return
	}

	if err := x.users.Credit(log, cmd.User, amount); err != nil {
		log.E("Failed to credit user", tracing.InnerError, err)
		x.diplomat.Reply(log, msg, MsgUserUnknown)
		return
	}

	x.diplomat.Reply(log, msg, fmt.Sprintf("Credited %s ₽ to %d.", format.Decimalify(amount), cmd.User))
}

func (x *TelegramHandler) HandleGrantCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	if !x.isAdmin(msg.From.ID) {
		x.diplomat.Reply(log, msg, MsgNoAccess)
		return
	}

	var cmd GrantCmd
	if _, err := x.ParseKongCommand(log, msg, &cmd); err != nil {
		x.diplomat.Reply(log, msg, MsgGrantUsage)
		return
	}
	if cmd.Count <= 0 {
		x.diplomat.Reply(log, msg, MsgGrantUsage)
		return
	}

	maxAmount := decimal.Zero
	if cmd.MaxAmount != "" {
		parsed, err := decimal.NewFromString(cmd.MaxAmount)
		if err != nil {
			x.diplomat.Reply(log, msg, MsgGrantUsage)
			return
		}
		maxAmount = parsed
	}

	if err := x.users.GrantReferralCredits(log, cmd.User, cmd.Count, maxAmount); err != nil {
		log.E("Failed to grant referral credits", tracing.InnerError, err)
		x.diplomat.Reply(log, msg, MsgUserUnknown)
		return
	}

	x.diplomat.Reply(log, msg, fmt.Sprintf("Granted %d referral credits to %d.", cmd.Count, cmd.User))
}

func (x *TelegramHandler) HandleStatsCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	if !x.isAdmin(msg.From.ID) {
		x.diplomat.Reply(log, msg, MsgNoAccess)
		return
	}

	var b strings.Builder
	b.WriteString("Stats:\n")

	if count, err := x.users.GetTotalUsersCount(log); err == nil {
		b.WriteString(fmt.Sprintf("Users: %s\n", format.Numberify(count)))
	}
	if count, err := x.generations.GetTotalGenerationsCount(log); err == nil {
		b.WriteString(fmt.Sprintf("Generations: %s\n", format.Numberify(count)))
	}
	if revenue, err := x.generations.GetTotalRevenue(log); err == nil {
		b.WriteString(fmt.Sprintf("Revenue: %s ₽\n", format.Decimalify(revenue)))
	}
	if pending, err := x.charges.CountPending(log); err == nil {
		b.WriteString(fmt.Sprintf("Pending charges: %s\n", format.Numberify(pending)))
	}

	x.diplomat.Reply(log, msg, b.String())
}

func (x *TelegramHandler) HandleRetentionCommand(log *tracing.Logger, user *entities.User, msg *tgbotapi.Message) {
	if !x.isAdmin(msg.From.ID) {
		x.diplomat.Reply(log, msg, MsgNoAccess)
		return
	}

	report, err := x.sweeper.RunOnce(log)
	if err != nil {
		log.E("Manual retention sweep failed", tracing.InnerError, err)
		x.diplomat.Reply(log, msg, MsgError)
		return
	}

	x.diplomat.Reply(log, msg, fmt.Sprintf("%s Released %d stale charges, dropped %d old updates.",
		MsgSweepDone, report.StaleChargesReleased, report.UpdatesDropped))
}
