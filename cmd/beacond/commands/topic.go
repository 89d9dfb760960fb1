package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beaconkit/beacond/config"
	"github.com/beaconkit/beacond/internal/gossip"
	"github.com/beaconkit/beacond/types"
)

const (
	kindFlag       = "kind"
	subnetFlag     = "subnet"
	encodingFlag   = "encoding"
	forkDigestFlag = "fork-digest"
)

type topicInfo struct {
	Topic      string           `json:"topic"`
	ForkDigest types.ForkDigest `json:"fork_digest"`
	Kind       string           `json:"kind"`
	Subnet     *gossip.SubnetID `json:"subnet,omitempty"`
	Encoding   gossip.Encoding  `json:"encoding"`
}

func newTopicInfo(t gossip.Topic) topicInfo {
	info := topicInfo{
		Topic:      t.String(),
		ForkDigest: t.ForkDigest,
		Kind:       t.Kind.String(),
		Encoding:   t.Encoding,
	}
	if t.Kind == gossip.KindCommitteeIndex {
		subnet := t.Subnet
		info.Subnet = &subnet
	}
	return info
}

// MakeTopicCommand constructs a command that parses a gossip topic.
func MakeTopicCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "topic <topic>",
		Short: "Parse a gossip topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := gossip.ParseTopic(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, newTopicInfo(t))
		},
	}
}

// MakeEncodeTopicCommand constructs a command that builds the gossip topic
// for a message kind. The fork digest and encoding default to the [gossip]
// config section.
func MakeEncodeTopicCommand(conf *config.Config) *cobra.Command {
	var (
		kindName   string
		subnet     uint64
		encoding   string
		forkDigest string
	)

	cmd := &cobra.Command{
		Use:   "encode-topic",
		Short: "Build the gossip topic for a message kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed(encodingFlag) {
				encoding = conf.Gossip.Encoding
			}
			if !cmd.Flags().Changed(forkDigestFlag) {
				forkDigest = conf.Gossip.ForkDigest
			}

			kind, err := gossip.ParseKind(kindName)
			if err != nil {
				return err
			}
			enc, err := gossip.ParseEncoding(encoding)
			if err != nil {
				return err
			}
			digest, err := types.ForkDigestFromHex(forkDigest)
			if err != nil {
				return err
			}

			var t gossip.Topic
			switch {
			case kind == gossip.KindCommitteeIndex:
				if subnet >= gossip.AttestationSubnetCount {
					return fmt.Errorf("subnet %d out of range [0, %d)", subnet, gossip.AttestationSubnetCount)
				}
				t = gossip.NewAttestationTopic(digest, gossip.SubnetID(subnet), enc)
			case cmd.Flags().Changed(subnetFlag):
				return fmt.Errorf("--%s only applies to %s topics, not %s", subnetFlag, gossip.KindCommitteeIndex, kind)
			default:
				t = gossip.NewTopic(digest, kind, enc)
			}
			return printJSON(cmd, newTopicInfo(t))
		},
	}

	cmd.Flags().StringVar(&kindName, kindFlag, "", "message kind, e.g. beacon_block or committee_index_beacon_attestation")
	cmd.Flags().Uint64Var(&subnet, subnetFlag, 0, "attestation subnet, for committee_index_beacon_attestation only")
	cmd.Flags().StringVar(&encoding, encodingFlag, "", "wire encoding: ssz | ssz_snappy (default from config)")
	cmd.Flags().StringVar(&forkDigest, forkDigestFlag, "", "fork digest as 8 hex characters (default from config)")
	_ = cmd.MarkFlagRequired(kindFlag)

	return cmd
}
