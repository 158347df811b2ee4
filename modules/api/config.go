package api

import (
	"blockballot/modules/config"
)

type apiConfig struct {
	ListenAddr string
}

type ApiConfig struct {
	*config.Config[apiConfig]
}

func NewApiConfig() ApiConfig {
	return ApiConfig{
		config.New(apiConfig{
			ListenAddr: ":8080",
		}),
	}
}

func (ac ApiConfig) SetListenAddr(addr string) error {
	return ac.Update(func(c *apiConfig) {
		c.ListenAddr = addr
	})
}
