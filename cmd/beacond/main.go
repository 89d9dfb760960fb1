package main

import (
	"context"
	"os"

	"github.com/beaconkit/beacond/cmd/beacond/commands"
	"github.com/beaconkit/beacond/config"
	"github.com/beaconkit/beacond/libs/cli"
	"github.com/beaconkit/beacond/libs/log"
)

func main() {
	ctx := context.Background()

	conf := config.DefaultConfig()

	logger, err := log.NewDefaultLogger(log.LogFormatPlain, log.LogLevelInfo)
	if err != nil {
		panic(err)
	}

	rcmd := commands.RootCommand(conf, logger)
	rcmd.AddCommand(
		commands.MakeInitCommand(conf, logger),
		commands.MakeTopicCommand(),
		commands.MakeEncodeTopicCommand(conf),
		commands.MakeDecodeCommand(),
		commands.MakeImportCommand(conf, logger),
		commands.VersionCmd,
	)

	if err := cli.RunWithTrace(ctx, rcmd); err != nil {
		os.Exit(1)
	}
}
