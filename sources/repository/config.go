package repository

import (
	"time"
	"modelkiosk/sources/platform"
)

type RetentionConfig struct {
	UpdatesRetentionDays int
	StaleChargeAge       time.Duration
	SweepInterval        time.Duration
}

func NewRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		UpdatesRetentionDays: platform.GetAsInt("UPDATES_RETENTION_DAYS", 7),
		StaleChargeAge:       platform.GetAsDuration("STALE_CHARGE_AGE", "24h"),
		SweepInterval:        platform.GetAsDuration("RETENTION_SWEEP_INTERVAL", "1h"),
	}
}
