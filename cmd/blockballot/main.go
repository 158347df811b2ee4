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
	"blockballot/modules/api"
	"blockballot/modules/common"
	"blockballot/modules/db"
	"blockballot/modules/db/ballot"
	electionsDb "blockballot/modules/db/ballot/elections"
	eligibilityDb "blockballot/modules/db/ballot/eligibility"
	finalvotesDb "blockballot/modules/db/ballot/finalvotes"
	votelocksDb "blockballot/modules/db/ballot/votelocks"
	"blockballot/modules/eligibility"
	"blockballot/modules/ledger/client"
	"blockballot/modules/lockwatch"
	"blockballot/modules/results"
	"blockballot/modules/voting"
)

func main() {
	log := logger.PrefixedLogger{Prefix: "blockballot"}

	dbConf := db.NewDbConfig()
	if mongoUrl := os.Getenv("MONGO_URL"); mongoUrl != "" {
		dbConf.Update(func(dc *db.DbConfig) {
			dc.DbURI = mongoUrl
		})
	}
	mongo := db.New(dbConf)
	ballotDb := ballot.New(mongo)
	elections := electionsDb.New(ballotDb)
	eligibilityRecords := eligibilityDb.New(ballotDb)
	voteLocks := votelocksDb.New(ballotDb)
	finalVotes := finalvotesDb.New(ballotDb)

	identityConf := common.NewIdentityConfig()
	clientConf := client.NewClientConfig()
	ledger := client.New(clientConf, identityConf, log)

	gate := eligibility.NewGate(eligibilityRecords)
	lockManager := voting.NewLockManager(voteLocks, finalVotes, log)
	votes := voting.New(elections, gate, lockManager, ledger, log)
	aggregator := results.New(elections, eligibilityRecords, finalVotes, ledger, log)

	authConf := api.NewAuthConfig()
	apiConf := api.NewApiConfig()
	gateway := api.New(apiConf, api.NewStaticTokenAuth(authConf), votes, aggregator, log)

	watchConf := lockwatch.NewLockwatchConfig()
	watcher := lockwatch.New(watchConf, voteLocks, log)

	plugins := make([]aggregate.Plugin, 0)
	plugins = append(plugins,
		dbConf,
		identityConf,
		clientConf,
		authConf,
		apiConf,
		watchConf,
		mongo,
		ballotDb,
		elections,
		eligibilityRecords,
		voteLocks,
		finalVotes,
		gateway,
		watcher,
	)

	a := aggregate.New(plugins)

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
