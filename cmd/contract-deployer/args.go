package main

import (
	"flag"
	"fmt"
	"os"
)

type args struct {
	electionPath string
	isInit       bool
	reset        bool
}

func ParseArgs() (args, error) {
	flag.Usage = func() {
		fmt.Printf("Deploy a ballot contract and register its election.\n\n")
		fmt.Printf("Usage: %s [options]\n", os.Args[0])
		flag.PrintDefaults()
	}
	electionPath := flag.String("election", "election.json", "Path to the election definition file")
	isInit := flag.Bool("init", false, "Generate config files and exit")
	reset := flag.Bool("reset", false, "Wipe the ballot database before registering")
	flag.Parse()

	return args{
		*electionPath,
		*isInit,
		*reset,
	}, nil
}
