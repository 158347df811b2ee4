package rpc

import "blockballot/modules/config"

type rpcConfig struct {
	ListenAddr         string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

type RpcConfig struct {
	*config.Config[rpcConfig]
}

func NewRpcConfig() RpcConfig {
	return RpcConfig{config.New(
		rpcConfig{
			ListenAddr:         ":8545",
			RateLimitPerSecond: 5,
			RateLimitBurst:     10,
		},
	)}
}

func (rc RpcConfig) SetListenAddr(addr string) error {
	return rc.Update(func(c *rpcConfig) {
		c.ListenAddr = addr
	})
}

func (rc RpcConfig) SetRateLimit(perSecond float64, burst int) error {
	return rc.Update(func(c *rpcConfig) {
		c.RateLimitPerSecond = perSecond
		c.RateLimitBurst = burst
	})
}
