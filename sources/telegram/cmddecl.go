package telegram

type TopupCmd struct {
	User   int64  `arg:"" help:"Telegram user id"`
	Amount string `arg:"" help:"Amount to credit, in rubles"`
}

type GrantCmd struct {
	User      int64  `arg:"" help:"Telegram user id"`
	Count     int    `arg:"" help:"Number of referral credits to grant"`
	MaxAmount string `arg:"" optional:"" help:"Per-generation price cap for the credits"`
}
