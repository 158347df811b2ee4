package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"blockballot/lib/logger"
	"blockballot/lib/utils"
	"blockballot/modules/aggregate"
	"blockballot/modules/common"
	"blockballot/modules/db"
	"blockballot/modules/db/ballot"
	electionsDb "blockballot/modules/db/ballot/elections"
	eligibilityDb "blockballot/modules/db/ballot/eligibility"
	"blockballot/modules/ledger/client"
	"blockballot/modules/ledger/contract"

	"github.com/google/uuid"
)

// electionDefinition is the JSON document an operator hands to the
// deployer. Voters are seeded as approved eligibility records.
type electionDefinition struct {
	electionsDb.Election
	Voters []string `json:"voters"`
}

func main() {
	args, err := ParseArgs()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	log := logger.PrefixedLogger{Prefix: "contract-deployer"}

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

	identityConf := common.NewIdentityConfig()
	clientConf := client.NewClientConfig()
	ledger := client.New(clientConf, identityConf, log)

	plugins := []aggregate.Plugin{
		dbConf,
		identityConf,
		clientConf,
		mongo,
		ballotDb,
		elections,
		eligibilityRecords,
	}
	a := aggregate.New(
		plugins,
	)

	initErr := a.Init()
	if initErr != nil {
		fmt.Println("failed to init plugins", initErr)
		os.Exit(1)
	}
	if args.isInit {
		fmt.Println("generated config files successfully")
		os.Exit(0)
	}

	a.Start()

	if args.reset {
		if err := ballotDb.Nuke(); err != nil {
			fmt.Println("failed to wipe ballot database", err)
			os.Exit(1)
		}
		fmt.Println("wiped ballot database")
	}

	definition, err := readDefinition(args.electionPath)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	address, txHash, err := ledger.Deploy(context.Background(), positionSpecs(definition.Positions))
	if err != nil {
		fmt.Println("failed to deploy ballot contract", err)
		os.Exit(1)
	}
	fmt.Println("deployed ballot contract", address, "in tx", txHash)

	election := definition.Election
	if election.ElectionID == "" {
		election.ElectionID = uuid.NewString()
	}
	election.ContractAddress = address
	if err := elections.RegisterElection(election); err != nil {
		fmt.Println("failed to register election", err)
		os.Exit(1)
	}

	for _, contact := range definition.Voters {
		if err := eligibilityRecords.SetStatus(election.ElectionID, contact, eligibilityDb.StatusApproved); err != nil {
			fmt.Println("failed to approve voter", contact, err)
			os.Exit(1)
		}
	}
	fmt.Println("registered election", election.ElectionID, "with", len(definition.Voters), "approved voters")

	err = a.Stop()
	if err != nil {
		fmt.Println("failed to stop plugins", err)
		os.Exit(1)
	}
}

func readDefinition(path string) (electionDefinition, error) {
	var definition electionDefinition
	b, err := os.ReadFile(path)
	if err != nil {
		return definition, fmt.Errorf("failed to read election definition: %w", err)
	}
	if err := json.Unmarshal(b, &definition); err != nil {
		return definition, fmt.Errorf("failed to parse election definition: %w", err)
	}
	if definition.Title == "" {
		return definition, fmt.Errorf("election definition is missing a title")
	}
	if !definition.EndsAt.After(definition.StartsAt) {
		return definition, fmt.Errorf("election window is invalid")
	}
	return definition, nil
}

func positionSpecs(positions []electionsDb.Position) []contract.PositionSpec {
	return utils.Map(positions, func(position electionsDb.Position) contract.PositionSpec {
		return contract.PositionSpec{
			Name: position.Name,
			Candidates: utils.Map(position.Candidates, func(candidate electionsDb.CandidateMeta) string {
				return candidate.Name
			}),
		}
	})
}
