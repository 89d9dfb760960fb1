package types

import (
	ssz "github.com/ferranbt/fastssz"
)

const (
	checkpointSize         = 40
	attestationDataSize    = 128
	attestationFixedSize   = 4 + attestationDataSize + SignatureLength
	aggregateAndProofFixed = 8 + 4 + SignatureLength

	// a bitlist of N bits needs N/8+1 bytes including the delimiter bit
	maxAggregationBitsBytes = MaxValidatorsPerCommittee/8 + 1
)

// Checkpoint is an (epoch, root) pair used for justification and finality.
type Checkpoint struct {
	Epoch Epoch `json:"epoch"`
	Root  Root  `json:"root"`
}

func (c *Checkpoint) SizeSSZ() int { return checkpointSize }

func (c *Checkpoint) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(c) }

func (c *Checkpoint) MarshalSSZTo(buf []byte) ([]byte, error) {
	if c == nil {
		c = new(Checkpoint)
	}
	dst := ssz.MarshalUint64(buf, uint64(c.Epoch))
	return append(dst, c.Root[:]...), nil
}

func (c *Checkpoint) UnmarshalSSZ(buf []byte) error {
	if len(buf) != checkpointSize {
		return ssz.ErrSize
	}
	c.Epoch = Epoch(ssz.UnmarshallUint64(buf[0:8]))
	copy(c.Root[:], buf[8:40])
	return nil
}

// AttestationData is what a committee member votes on.
type AttestationData struct {
	Slot            Slot           `json:"slot"`
	Index           CommitteeIndex `json:"index"`
	BeaconBlockRoot Root           `json:"beacon_block_root"`
	Source          *Checkpoint    `json:"source"`
	Target          *Checkpoint    `json:"target"`
}

func (d *AttestationData) SizeSSZ() int { return attestationDataSize }

func (d *AttestationData) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(d) }

func (d *AttestationData) MarshalSSZTo(buf []byte) ([]byte, error) {
	if d == nil {
		d = new(AttestationData)
	}
	dst := ssz.MarshalUint64(buf, uint64(d.Slot))
	dst = ssz.MarshalUint64(dst, uint64(d.Index))
	dst = append(dst, d.BeaconBlockRoot[:]...)
	dst, _ = d.Source.MarshalSSZTo(dst)
	return d.Target.MarshalSSZTo(dst)
}

func (d *AttestationData) UnmarshalSSZ(buf []byte) error {
	if len(buf) != attestationDataSize {
		return ssz.ErrSize
	}
	d.Slot = Slot(ssz.UnmarshallUint64(buf[0:8]))
	d.Index = CommitteeIndex(ssz.UnmarshallUint64(buf[8:16]))
	copy(d.BeaconBlockRoot[:], buf[16:48])
	if d.Source == nil {
		d.Source = new(Checkpoint)
	}
	if err := d.Source.UnmarshalSSZ(buf[48:88]); err != nil {
		return err
	}
	if d.Target == nil {
		d.Target = new(Checkpoint)
	}
	return d.Target.UnmarshalSSZ(buf[88:128])
}

// Attestation is an aggregatable committee vote. AggregationBits is an SSZ
// bitlist, delimiter bit included.
type Attestation struct {
	AggregationBits []byte           `json:"aggregation_bits"`
	Data            *AttestationData `json:"data"`
	Signature       BLSSignature     `json:"signature"`
}

func (a *Attestation) SizeSSZ() int {
	if a == nil {
		return attestationFixedSize
	}
	return attestationFixedSize + len(a.AggregationBits)
}

func (a *Attestation) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(a) }

func (a *Attestation) MarshalSSZTo(buf []byte) ([]byte, error) {
	if a == nil {
		a = new(Attestation)
	}
	if err := ssz.ValidateBitlist(a.AggregationBits, MaxValidatorsPerCommittee); err != nil {
		return nil, err
	}
	dst := ssz.WriteOffset(buf, attestationFixedSize)
	dst, _ = a.Data.MarshalSSZTo(dst)
	dst = append(dst, a.Signature[:]...)
	return append(dst, a.AggregationBits...), nil
}

func (a *Attestation) UnmarshalSSZ(buf []byte) error {
	if len(buf) < attestationFixedSize {
		return ssz.ErrSize
	}
	if ssz.ReadOffset(buf[0:4]) != attestationFixedSize {
		return ssz.ErrOffset
	}
	if a.Data == nil {
		a.Data = new(AttestationData)
	}
	if err := a.Data.UnmarshalSSZ(buf[4:132]); err != nil {
		return err
	}
	copy(a.Signature[:], buf[132:228])

	tail := buf[attestationFixedSize:]
	if len(tail) > maxAggregationBitsBytes {
		return ssz.ErrBytesLength
	}
	if err := ssz.ValidateBitlist(tail, MaxValidatorsPerCommittee); err != nil {
		return err
	}
	a.AggregationBits = append([]byte(nil), tail...)
	return nil
}

// IndexedAttestation is an attestation with its committee resolved into
// validator indices, as carried by attester slashings.
type IndexedAttestation struct {
	AttestingIndices []ValidatorIndex `json:"attesting_indices"`
	Data             *AttestationData `json:"data"`
	Signature        BLSSignature     `json:"signature"`
}

func (a *IndexedAttestation) SizeSSZ() int {
	if a == nil {
		return attestationFixedSize
	}
	return attestationFixedSize + 8*len(a.AttestingIndices)
}

func (a *IndexedAttestation) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(a) }

func (a *IndexedAttestation) MarshalSSZTo(buf []byte) ([]byte, error) {
	if a == nil {
		a = new(IndexedAttestation)
	}
	if len(a.AttestingIndices) > MaxValidatorsPerCommittee {
		return nil, ssz.ErrListTooBig
	}
	dst := ssz.WriteOffset(buf, attestationFixedSize)
	dst, _ = a.Data.MarshalSSZTo(dst)
	dst = append(dst, a.Signature[:]...)
	for _, idx := range a.AttestingIndices {
		dst = ssz.MarshalUint64(dst, uint64(idx))
	}
	return dst, nil
}

func (a *IndexedAttestation) UnmarshalSSZ(buf []byte) error {
	if len(buf) < attestationFixedSize {
		return ssz.ErrSize
	}
	if ssz.ReadOffset(buf[0:4]) != attestationFixedSize {
		return ssz.ErrOffset
	}
	if a.Data == nil {
		a.Data = new(AttestationData)
	}
	if err := a.Data.UnmarshalSSZ(buf[4:132]); err != nil {
		return err
	}
	copy(a.Signature[:], buf[132:228])

	tail := buf[attestationFixedSize:]
	if len(tail)%8 != 0 {
		return ssz.ErrBytesLength
	}
	n := len(tail) / 8
	if n > MaxValidatorsPerCommittee {
		return ssz.ErrListTooBig
	}
	a.AttestingIndices = nil
	if n > 0 {
		a.AttestingIndices = make([]ValidatorIndex, n)
		for i := range a.AttestingIndices {
			a.AttestingIndices[i] = ValidatorIndex(ssz.UnmarshallUint64(tail[i*8 : (i+1)*8]))
		}
	}
	return nil
}

// AggregateAndProof wraps an aggregate attestation with the aggregator's
// selection proof.
type AggregateAndProof struct {
	AggregatorIndex ValidatorIndex `json:"aggregator_index"`
	Aggregate       *Attestation   `json:"aggregate"`
	SelectionProof  BLSSignature   `json:"selection_proof"`
}

func (a *AggregateAndProof) SizeSSZ() int {
	if a == nil {
		return aggregateAndProofFixed + attestationFixedSize
	}
	return aggregateAndProofFixed + a.Aggregate.SizeSSZ()
}

func (a *AggregateAndProof) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(a) }

func (a *AggregateAndProof) MarshalSSZTo(buf []byte) ([]byte, error) {
	if a == nil {
		a = new(AggregateAndProof)
	}
	dst := ssz.MarshalUint64(buf, uint64(a.AggregatorIndex))
	dst = ssz.WriteOffset(dst, aggregateAndProofFixed)
	dst = append(dst, a.SelectionProof[:]...)
	return a.Aggregate.MarshalSSZTo(dst)
}

func (a *AggregateAndProof) UnmarshalSSZ(buf []byte) error {
	if len(buf) < aggregateAndProofFixed {
		return ssz.ErrSize
	}
	a.AggregatorIndex = ValidatorIndex(ssz.UnmarshallUint64(buf[0:8]))
	if ssz.ReadOffset(buf[8:12]) != aggregateAndProofFixed {
		return ssz.ErrOffset
	}
	copy(a.SelectionProof[:], buf[12:108])
	if a.Aggregate == nil {
		a.Aggregate = new(Attestation)
	}
	return a.Aggregate.UnmarshalSSZ(buf[aggregateAndProofFixed:])
}
