package client

import (
	"blockballot/modules/config"
)

type clientConfig struct {
	Endpoint          string
	ConfirmIntervalMs uint64
	ConfirmTimeoutMs  uint64
}

type ClientConfig struct {
	*config.Config[clientConfig]
}

func NewClientConfig() ClientConfig {
	return ClientConfig{
		config.New(clientConfig{
			Endpoint:          "http://localhost:8545",
			ConfirmIntervalMs: 100,
			ConfirmTimeoutMs:  15000,
		}),
	}
}

func (cc ClientConfig) SetEndpoint(url string) error {
	return cc.Update(func(c *clientConfig) {
		c.Endpoint = url
	})
}

func (cc ClientConfig) SetConfirmPolling(intervalMs uint64, timeoutMs uint64) error {
	return cc.Update(func(c *clientConfig) {
		c.ConfirmIntervalMs = intervalMs
		c.ConfirmTimeoutMs = timeoutMs
	})
}
