package chain

import "blockballot/modules/config"

type chainConfig struct {
	BlockIntervalMs uint64
}

type ChainConfig struct {
	*config.Config[chainConfig]
}

func NewChainConfig() ChainConfig {
	return ChainConfig{config.New(
		chainConfig{
			BlockIntervalMs: 500,
		},
	)}
}

func (cc ChainConfig) SetBlockInterval(ms uint64) error {
	return cc.Update(func(c *chainConfig) {
		c.BlockIntervalMs = ms
	})
}
