package common

import (
	"fmt"

	"blockballot/modules/config"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// identityConfig holds the account the gateway submits ledger
// transactions from. It must be the account that deployed the
// contract, otherwise every castVotes call reverts.
type identityConfig struct {
	SubmitterAddress string
}

type identityConfigStruct struct {
	*config.Config[identityConfig]
}

type IdentityConfig = *identityConfigStruct

func NewIdentityConfig() IdentityConfig {
	return &identityConfigStruct{config.New(
		identityConfig{
			SubmitterAddress: "0x0000000000000000000000000000000000000000",
		},
	)}
}

func (ic *identityConfigStruct) SetSubmitterAddress(addr string) error {
	if !ethcommon.IsHexAddress(addr) {
		return fmt.Errorf("invalid submitter address: %s", addr)
	}
	return ic.Update(func(dc *identityConfig) {
		dc.SubmitterAddress = addr
	})
}

func (ic *identityConfigStruct) Submitter() (ethcommon.Address, error) {
	addr := ic.Get().SubmitterAddress
	if !ethcommon.IsHexAddress(addr) {
		return ethcommon.Address{}, fmt.Errorf("invalid submitter address: %s", addr)
	}
	return ethcommon.HexToAddress(addr), nil
}
