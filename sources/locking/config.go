package locking

import (
	"time"
	"modelkiosk/sources/platform"
)

type LockingConfig struct {
	LeaseName       string
	LeaseTTL        time.Duration
	Heartbeat       time.Duration
	AcquireRetries  int
	AcquireInterval time.Duration
	StandbyInterval time.Duration
}

func NewLockingConfig() *LockingConfig {
	return &LockingConfig{
		LeaseName:       platform.Get("LEASE_NAME", "modelkiosk-active"),
		LeaseTTL:        platform.GetAsDuration("LEASE_TTL", "10s"),
		Heartbeat:       platform.GetAsDuration("LEASE_HEARTBEAT", "3s"),
		AcquireRetries:  platform.GetAsInt("LEASE_ACQUIRE_RETRIES", 8),
		AcquireInterval: platform.GetAsDuration("LEASE_ACQUIRE_INTERVAL", "2s"),
		StandbyInterval: platform.GetAsDuration("LEASE_STANDBY_INTERVAL", "5s"),
	}
}
