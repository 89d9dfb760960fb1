package gossip

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beaconkit/beacond/types"
)

// Topic string layout: /eth2/<fork digest>/<kind>/<encoding>
const (
	topicPrefix = "eth2"

	beaconBlockTopic       = "beacon_block"
	aggregateAndProofTopic = "beacon_aggregate_and_proof"
	voluntaryExitTopic     = "voluntary_exit"
	proposerSlashingTopic  = "proposer_slashing"
	attesterSlashingTopic  = "attester_slashing"

	committeeIndexPrefix = "committee_index"
	committeeIndexSuffix = "_beacon_attestation"

	// AttestationSubnetCount is the number of attestation subnets.
	AttestationSubnetCount = 64
)

// ErrNotGossipTopic is returned by ParseTopic for strings outside the topic
// grammar.
var ErrNotGossipTopic = errors.New("not a gossip topic")

// Kind is the kind of consensus object carried on a topic.
type Kind uint8

const (
	KindBeaconBlock Kind = iota + 1
	KindAggregateAndProof
	// KindCommitteeIndex is the attestation subnet family; the subnet is
	// part of the topic.
	KindCommitteeIndex
	KindVoluntaryExit
	KindProposerSlashing
	KindAttesterSlashing
)

var kindNames = map[Kind]string{
	KindBeaconBlock:       beaconBlockTopic,
	KindAggregateAndProof: aggregateAndProofTopic,
	KindCommitteeIndex:    "committee_index_beacon_attestation",
	KindVoluntaryExit:     voluntaryExitTopic,
	KindProposerSlashing:  proposerSlashingTopic,
	KindAttesterSlashing:  attesterSlashingTopic,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind returns the Kind whose String is name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown message kind %q", name)
}

// SubnetID is an attestation subnet.
type SubnetID uint64

// Topic is a parsed gossip topic. Subnet is only meaningful for
// KindCommitteeIndex and is zero otherwise.
type Topic struct {
	ForkDigest types.ForkDigest
	Kind       Kind
	Subnet     SubnetID
	Encoding   Encoding
}

// NewTopic returns the topic for a kind without a subnet.
func NewTopic(digest types.ForkDigest, kind Kind, enc Encoding) Topic {
	return Topic{ForkDigest: digest, Kind: kind, Encoding: enc}
}

// NewAttestationTopic returns the topic of an attestation subnet.
func NewAttestationTopic(digest types.ForkDigest, subnet SubnetID, enc Encoding) Topic {
	return Topic{ForkDigest: digest, Kind: KindCommitteeIndex, Subnet: subnet, Encoding: enc}
}

// String renders the topic; ParseTopic(t.String()) == t for every topic
// ParseTopic can return.
func (t Topic) String() string {
	return fmt.Sprintf("/%s/%s/%s/%s", topicPrefix, t.ForkDigest, t.kindString(), t.Encoding)
}

func (t Topic) kindString() string {
	if t.Kind == KindCommitteeIndex {
		return committeeIndexPrefix + strconv.FormatUint(uint64(t.Subnet), 10) + committeeIndexSuffix
	}
	return t.Kind.String()
}

// ParseTopic resolves a topic string. Strings outside the grammar, including
// unknown encodings and out of range subnets, yield ErrNotGossipTopic.
func ParseTopic(s string) (Topic, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 5 || parts[0] != "" || parts[1] != topicPrefix {
		return Topic{}, notGossipTopic(s)
	}

	var topic Topic
	digest := parts[2]
	if len(digest) != 2*types.DigestLength || strings.ToLower(digest) != digest {
		return Topic{}, notGossipTopic(s)
	}
	if err := topic.ForkDigest.UnmarshalText([]byte(digest)); err != nil {
		return Topic{}, notGossipTopic(s)
	}

	kind, subnet, ok := parseKind(parts[3])
	if !ok {
		return Topic{}, notGossipTopic(s)
	}
	topic.Kind, topic.Subnet = kind, subnet

	topic.Encoding = Encoding(parts[4])
	if _, ok := encodings[topic.Encoding]; !ok {
		return Topic{}, notGossipTopic(s)
	}
	return topic, nil
}

func parseKind(s string) (Kind, SubnetID, bool) {
	switch s {
	case beaconBlockTopic:
		return KindBeaconBlock, 0, true
	case aggregateAndProofTopic:
		return KindAggregateAndProof, 0, true
	case voluntaryExitTopic:
		return KindVoluntaryExit, 0, true
	case proposerSlashingTopic:
		return KindProposerSlashing, 0, true
	case attesterSlashingTopic:
		return KindAttesterSlashing, 0, true
	}

	if len(s) < len(committeeIndexPrefix)+len(committeeIndexSuffix) ||
		!strings.HasPrefix(s, committeeIndexPrefix) || !strings.HasSuffix(s, committeeIndexSuffix) {
		return 0, 0, false
	}
	digits := s[len(committeeIndexPrefix) : len(s)-len(committeeIndexSuffix)]
	// digits only, no sign and no leading zeros, so the subnet renders back
	// to the same string
	if digits == "" || (len(digits) > 1 && digits[0] == '0') || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, 0, false
	}
	subnet, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || subnet >= AttestationSubnetCount {
		return 0, 0, false
	}
	return KindCommitteeIndex, SubnetID(subnet), true
}

func notGossipTopic(s string) error {
	return fmt.Errorf("%w: %q", ErrNotGossipTopic, s)
}
