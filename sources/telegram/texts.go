package telegram

const (
	MsgWelcome = "Welcome to the model kiosk. Pick a model with /models, check its price with /price, and run it with /generate. The cheapest models are free."

	MsgHelp = `Available commands:
/models - list sellable models and prices
/price <model> - show the effective price for a model
/generate <model> <prompt> - run a generation
/balance - show your balance and referral credits
/history - show your recent generations
/help - this message`

	MsgUnknownCommand     = "Unknown command. Try /help."
	MsgError              = "Something went wrong, please try again later."
	MsgStandby            = "The service is switching instances right now, please retry in a few seconds."
	MsgThrottleExceeded   = "Too many requests, give it a few seconds."
	MsgNoAccess           = "This command is for administrators."
	MsgGenerateUsage      = "Usage: /generate <model> <prompt>"
	MsgPriceUsage         = "Usage: /price <model>"
	MsgModelUnknown       = "No such model in the catalog. See /models."
	MsgModelFree          = "free"
	MsgGenerationFailed   = "Generation failed, nothing was charged."
	MsgGenerationReplayed = "This request was already settled, nothing new was charged."
	MsgInsufficient       = "Not enough balance for this model. Check /balance and /price."
	MsgInFlight           = "This exact request is still being processed."
	MsgHistoryEmpty       = "No generations yet. Start with /models."
	MsgSweepDone          = "Reconciliation sweep finished."
	MsgTopupUsage         = "Usage: /topup <user_id> <amount>"
	MsgGrantUsage         = "Usage: /grant <user_id> <count> [max_amount]"
	MsgUserUnknown        = "No such user."
)
