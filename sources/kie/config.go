package kie

import (
	"time"
	"modelkiosk/sources/platform"
)

type KieConfig struct {
	BaseURL        string
	APIKey         string
	PollInterval   time.Duration
	MaxPollTime    time.Duration
	RequestTimeout time.Duration
}

func NewKieConfig() *KieConfig {
	return &KieConfig{
		BaseURL:        platform.Get("KIE_BASE_URL", "https://api.kie.ai"),
		APIKey:         platform.Get("KIE_API_KEY", ""),
		PollInterval:   platform.GetAsDuration("KIE_POLL_INTERVAL", "3s"),
		MaxPollTime:    platform.GetAsDuration("KIE_MAX_POLL_TIME", "5m"),
		RequestTimeout: platform.GetAsDuration("KIE_REQUEST_TIMEOUT", "30s"),
	}
}
