package gossip

import (
	"github.com/beaconkit/beacond/types"
)

// Message is a decoded gossip message. It is one of BeaconBlockMessage,
// AggregateAndProofMessage, AttestationMessage, VoluntaryExitMessage,
// ProposerSlashingMessage or AttesterSlashingMessage, and always carries a
// non-nil object.
type Message interface {
	// Kind is the topic kind the message travels on.
	Kind() Kind

	// object returns the wrapped consensus object.
	object() types.Object
}

var (
	_ Message = (*BeaconBlockMessage)(nil)
	_ Message = (*AggregateAndProofMessage)(nil)
	_ Message = (*AttestationMessage)(nil)
	_ Message = (*VoluntaryExitMessage)(nil)
	_ Message = (*ProposerSlashingMessage)(nil)
	_ Message = (*AttesterSlashingMessage)(nil)
)

type BeaconBlockMessage struct {
	Block *types.SignedBeaconBlock
}

func NewBeaconBlockMessage(b *types.SignedBeaconBlock) *BeaconBlockMessage {
	return &BeaconBlockMessage{Block: b}
}

func (*BeaconBlockMessage) Kind() Kind             { return KindBeaconBlock }
func (m *BeaconBlockMessage) object() types.Object { return m.Block }

type AggregateAndProofMessage struct {
	AggregateAndProof *types.AggregateAndProof
}

func NewAggregateAndProofMessage(a *types.AggregateAndProof) *AggregateAndProofMessage {
	return &AggregateAndProofMessage{AggregateAndProof: a}
}

func (*AggregateAndProofMessage) Kind() Kind             { return KindAggregateAndProof }
func (m *AggregateAndProofMessage) object() types.Object { return m.AggregateAndProof }

// AttestationMessage is an unaggregated attestation seen on an attestation
// subnet.
type AttestationMessage struct {
	Subnet      SubnetID
	Attestation *types.Attestation
}

func NewAttestationMessage(subnet SubnetID, a *types.Attestation) *AttestationMessage {
	return &AttestationMessage{Subnet: subnet, Attestation: a}
}

func (*AttestationMessage) Kind() Kind             { return KindCommitteeIndex }
func (m *AttestationMessage) object() types.Object { return m.Attestation }

type VoluntaryExitMessage struct {
	Exit *types.SignedVoluntaryExit
}

func NewVoluntaryExitMessage(e *types.SignedVoluntaryExit) *VoluntaryExitMessage {
	return &VoluntaryExitMessage{Exit: e}
}

func (*VoluntaryExitMessage) Kind() Kind             { return KindVoluntaryExit }
func (m *VoluntaryExitMessage) object() types.Object { return m.Exit }

type ProposerSlashingMessage struct {
	Slashing *types.ProposerSlashing
}

func NewProposerSlashingMessage(s *types.ProposerSlashing) *ProposerSlashingMessage {
	return &ProposerSlashingMessage{Slashing: s}
}

func (*ProposerSlashingMessage) Kind() Kind             { return KindProposerSlashing }
func (m *ProposerSlashingMessage) object() types.Object { return m.Slashing }

type AttesterSlashingMessage struct {
	Slashing *types.AttesterSlashing
}

func NewAttesterSlashingMessage(s *types.AttesterSlashing) *AttesterSlashingMessage {
	return &AttesterSlashingMessage{Slashing: s}
}

func (*AttesterSlashingMessage) Kind() Kind             { return KindAttesterSlashing }
func (m *AttesterSlashingMessage) object() types.Object { return m.Slashing }

// newMessage allocates an empty message for a topic, ready to be filled by
// decoding into its object.
func newMessage(t Topic) Message {
	switch t.Kind {
	case KindBeaconBlock:
		return &BeaconBlockMessage{Block: new(types.SignedBeaconBlock)}
	case KindAggregateAndProof:
		return &AggregateAndProofMessage{AggregateAndProof: new(types.AggregateAndProof)}
	case KindCommitteeIndex:
		return &AttestationMessage{Subnet: t.Subnet, Attestation: new(types.Attestation)}
	case KindVoluntaryExit:
		return &VoluntaryExitMessage{Exit: new(types.SignedVoluntaryExit)}
	case KindProposerSlashing:
		return &ProposerSlashingMessage{Slashing: new(types.ProposerSlashing)}
	case KindAttesterSlashing:
		return &AttesterSlashingMessage{Slashing: new(types.AttesterSlashing)}
	default:
		return nil
	}
}
