package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beaconkit/beacond/config"
	"github.com/beaconkit/beacond/libs/log"
	libos "github.com/beaconkit/beacond/libs/os"
	"github.com/beaconkit/beacond/node"
	"github.com/beaconkit/beacond/types"
)

// MakeInitCommand constructs a command that writes the default config
// and anchors the genesis block in a fresh block store.
func MakeInitCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a beacond home directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := config.ConfigFile(conf.RootDir)
			if libos.FileExists(configFile) {
				logger.Info("Found config file", "path", configFile)
			} else {
				if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
					return err
				}
				logger.Info("Generated config file", "path", configFile)
			}

			// opening the node anchors genesis on first use
			n, err := node.New(conf, logger)
			if err != nil {
				return err
			}
			head, slot := n.Chain().Head()
			if err := n.BlockStore().Close(); err != nil {
				return fmt.Errorf("closing block store: %w", err)
			}
			logger.Info("Initialized block store", "dir", conf.DBDir(), "head", head)

			return printJSON(cmd, headStatus{Root: head, Slot: slot})
		},
	}
}

type headStatus struct {
	Root types.Root `json:"head_root"`
	Slot types.Slot `json:"head_slot"`
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return err
}
