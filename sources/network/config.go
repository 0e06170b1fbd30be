package network

import (
	"time"
	"modelkiosk/sources/platform"
)

type ProxyConfig struct {
	ProxyEnabled bool
	ProxyAddress string
	ProxyUser    string
	ProxyPass    string
	Timeout      time.Duration
}

func NewProxyConfig() *ProxyConfig {
	return &ProxyConfig{
		ProxyEnabled: platform.GetAsBool("PROXY_ENABLED", false),
		ProxyAddress: platform.Get("PROXY_ADDRESS", "localhost:9050"),
		ProxyUser:    platform.Get("PROXY_USER", "admin"),
		ProxyPass:    platform.Get("PROXY_PASS", "admin"),
		Timeout:      platform.GetAsDuration("NETWORK_TIMEOUT", "60s"),
	}
}
