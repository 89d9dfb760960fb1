package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/beaconkit/beacond/config"
	"github.com/beaconkit/beacond/libs/cli"
	"github.com/beaconkit/beacond/libs/log"
)

const (
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
)

// ParseConfig retrieves the default environment configuration,
// sets up the beacond root and ensures that the root exists
func ParseConfig(conf *config.Config) (*config.Config, error) {
	if err := viper.Unmarshal(conf); err != nil {
		return nil, err
	}

	conf.SetRoot(conf.RootDir)

	if err := conf.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("error in config file: %w", err)
	}
	return conf, nil
}

// RootCommand constructs the root command-line entry point for beacond.
func RootCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beacond",
		Short: "Beacon chain block sync and gossip ingestion",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == VersionCmd.Name() {
				return nil
			}

			pconf, err := ParseConfig(conf)
			if err != nil {
				return err
			}
			*conf = *pconf
			if err := config.EnsureRoot(conf.RootDir); err != nil {
				return err
			}
			return log.OverrideWithNewLogger(logger, conf.LogFormat, conf.LogLevel)
		},
	}
	cmd.PersistentFlags().String(logLevelFlag, conf.LogLevel, "log level: debug | info | error")
	cmd.PersistentFlags().String(logFormatFlag, conf.LogFormat, "log format: plain | json")
	// the config keys are underscored
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup(logLevelFlag))
	_ = viper.BindPFlag("log_format", cmd.PersistentFlags().Lookup(logFormatFlag))

	return cli.PrepareBaseCmd(cmd, "BEACOND", os.ExpandEnv(filepath.Join("$HOME", config.DefaultBeacondDir)))
}
