package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"blockballot/lib/logger"
	"blockballot/modules/aggregate"
	"blockballot/modules/ledger/chain"
	"blockballot/modules/ledger/rpc"
)

func main() {
	log := logger.PrefixedLogger{Prefix: "ballot-node"}

	chainConf := chain.NewChainConfig()
	ledger := chain.New(chainConf, log)

	rpcConf := rpc.NewRpcConfig()
	server := rpc.New(rpcConf, ledger, log)

	a := aggregate.New([]aggregate.Plugin{
		chainConf,
		rpcConf,
		ledger,
		server,
	})

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		a.Cancel()
	}()

	err := a.Run()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Println("error is", err)
		os.Exit(1)
	}
}
