package commands

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/spf13/cobra"

	"github.com/beaconkit/beacond/internal/gossip"
	libos "github.com/beaconkit/beacond/libs/os"
)

const topicFlag = "topic"

// maxPayloadFileSize is the largest wire payload a gossip message can have.
var maxPayloadFileSize = int64(snappy.MaxEncodedLen(gossip.MaxGossipSize))

type decodedMessage struct {
	Kind    string         `json:"kind"`
	Message gossip.Message `json:"message"`
}

// MakeDecodeCommand constructs a command that decodes a gossip payload
// received under one or more topics.
func MakeDecodeCommand() *cobra.Command {
	var topics []string

	cmd := &cobra.Command{
		Use:   "decode --topic <topic>... <payload-file>",
		Short: "Decode a gossip payload",
		Long: `Decode a gossip payload delivered under the given topics.

The first topic that parses decides how the payload is decoded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := libos.ReadFileLimited(args[0], maxPayloadFileSize)
			if err != nil {
				return err
			}
			msg, err := gossip.DecodeMessage(topics, payload)
			if err != nil {
				return fmt.Errorf("decoding %s: %w", args[0], err)
			}
			return printJSON(cmd, decodedMessage{Kind: msg.Kind().String(), Message: msg})
		},
	}

	cmd.Flags().StringArrayVar(&topics, topicFlag, nil, "topic the payload arrived on; may be repeated")
	_ = cmd.MarkFlagRequired(topicFlag)

	return cmd
}
