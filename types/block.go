package types

import (
	"fmt"

	ssz "github.com/ferranbt/fastssz"
	"github.com/minio/sha256-simd"
)

const (
	// randao, eth1 data, graffiti and four list offsets
	beaconBlockBodyFixedSize   = SignatureLength + eth1DataSize + GraffitiLength + 4*bytesPerLengthOffset
	beaconBlockFixedSize       = 8 + 8 + 2*RootLength + bytesPerLengthOffset
	signedBeaconBlockFixedSize = bytesPerLengthOffset + SignatureLength
)

// BeaconBlockBody carries the operations included in a block. Deposits are
// not modelled.
type BeaconBlockBody struct {
	RandaoReveal      BLSSignature           `json:"randao_reveal"`
	Eth1Data          *Eth1Data              `json:"eth1_data"`
	Graffiti          Graffiti               `json:"graffiti"`
	ProposerSlashings []*ProposerSlashing    `json:"proposer_slashings"`
	AttesterSlashings []*AttesterSlashing    `json:"attester_slashings"`
	Attestations      []*Attestation         `json:"attestations"`
	VoluntaryExits    []*SignedVoluntaryExit `json:"voluntary_exits"`
}

func (b *BeaconBlockBody) SizeSSZ() int {
	if b == nil {
		return beaconBlockBodyFixedSize
	}
	return beaconBlockBodyFixedSize +
		len(b.ProposerSlashings)*proposerSlashingSize +
		dynamicListSize(b.AttesterSlashings) +
		dynamicListSize(b.Attestations) +
		len(b.VoluntaryExits)*signedVoluntaryExitSize
}

func (b *BeaconBlockBody) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(b) }

func (b *BeaconBlockBody) MarshalSSZTo(buf []byte) ([]byte, error) {
	if b == nil {
		b = new(BeaconBlockBody)
	}
	dst := append(buf, b.RandaoReveal[:]...)
	dst, _ = b.Eth1Data.MarshalSSZTo(dst)
	dst = append(dst, b.Graffiti[:]...)

	offset := beaconBlockBodyFixedSize
	dst = ssz.WriteOffset(dst, offset)
	offset += len(b.ProposerSlashings) * proposerSlashingSize
	dst = ssz.WriteOffset(dst, offset)
	offset += dynamicListSize(b.AttesterSlashings)
	dst = ssz.WriteOffset(dst, offset)
	offset += dynamicListSize(b.Attestations)
	dst = ssz.WriteOffset(dst, offset)

	var err error
	if dst, err = marshalFixedList(dst, b.ProposerSlashings, MaxProposerSlashings); err != nil {
		return nil, err
	}
	if dst, err = marshalDynamicList(dst, b.AttesterSlashings, MaxAttesterSlashings); err != nil {
		return nil, err
	}
	if dst, err = marshalDynamicList(dst, b.Attestations, MaxAttestations); err != nil {
		return nil, err
	}
	return marshalFixedList(dst, b.VoluntaryExits, MaxVoluntaryExits)
}

func (b *BeaconBlockBody) UnmarshalSSZ(buf []byte) error {
	if len(buf) < beaconBlockBodyFixedSize {
		return ssz.ErrSize
	}
	copy(b.RandaoReveal[:], buf[0:96])
	if b.Eth1Data == nil {
		b.Eth1Data = new(Eth1Data)
	}
	if err := b.Eth1Data.UnmarshalSSZ(buf[96:168]); err != nil {
		return err
	}
	copy(b.Graffiti[:], buf[168:200])

	offsets, err := readOffsets(buf, 200, 4, beaconBlockBodyFixedSize)
	if err != nil {
		return err
	}
	if b.ProposerSlashings, err = unmarshalFixedList[ProposerSlashing](
		buf[offsets[0]:offsets[1]], proposerSlashingSize, MaxProposerSlashings); err != nil {
		return err
	}
	if b.AttesterSlashings, err = unmarshalDynamicList[AttesterSlashing](
		buf[offsets[1]:offsets[2]], MaxAttesterSlashings); err != nil {
		return err
	}
	if b.Attestations, err = unmarshalDynamicList[Attestation](
		buf[offsets[2]:offsets[3]], MaxAttestations); err != nil {
		return err
	}
	b.VoluntaryExits, err = unmarshalFixedList[SignedVoluntaryExit](
		buf[offsets[3]:offsets[4]], signedVoluntaryExitSize, MaxVoluntaryExits)
	return err
}

type BeaconBlock struct {
	Slot          Slot             `json:"slot"`
	ProposerIndex ValidatorIndex   `json:"proposer_index"`
	ParentRoot    Root             `json:"parent_root"`
	StateRoot     Root             `json:"state_root"`
	Body          *BeaconBlockBody `json:"body"`
}

func (b *BeaconBlock) SizeSSZ() int {
	if b == nil {
		return beaconBlockFixedSize + beaconBlockBodyFixedSize
	}
	return beaconBlockFixedSize + b.Body.SizeSSZ()
}

func (b *BeaconBlock) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(b) }

func (b *BeaconBlock) MarshalSSZTo(buf []byte) ([]byte, error) {
	if b == nil {
		b = new(BeaconBlock)
	}
	dst := ssz.MarshalUint64(buf, uint64(b.Slot))
	dst = ssz.MarshalUint64(dst, uint64(b.ProposerIndex))
	dst = append(dst, b.ParentRoot[:]...)
	dst = append(dst, b.StateRoot[:]...)
	dst = ssz.WriteOffset(dst, beaconBlockFixedSize)
	return b.Body.MarshalSSZTo(dst)
}

func (b *BeaconBlock) UnmarshalSSZ(buf []byte) error {
	if len(buf) < beaconBlockFixedSize {
		return ssz.ErrSize
	}
	b.Slot = Slot(ssz.UnmarshallUint64(buf[0:8]))
	b.ProposerIndex = ValidatorIndex(ssz.UnmarshallUint64(buf[8:16]))
	copy(b.ParentRoot[:], buf[16:48])
	copy(b.StateRoot[:], buf[48:80])
	if ssz.ReadOffset(buf[80:84]) != beaconBlockFixedSize {
		return ssz.ErrOffset
	}
	if b.Body == nil {
		b.Body = new(BeaconBlockBody)
	}
	return b.Body.UnmarshalSSZ(buf[beaconBlockFixedSize:])
}

// HashRoot returns the block root: the SHA-256 digest of the block's SSZ
// encoding. It identifies a block uniquely within this node but is not the
// consensus hash-tree-root.
func (b *BeaconBlock) HashRoot() (Root, error) {
	bz, err := b.MarshalSSZ()
	if err != nil {
		return ZeroRoot, fmt.Errorf("encoding block: %w", err)
	}
	return Root(sha256.Sum256(bz)), nil
}

type SignedBeaconBlock struct {
	Block     *BeaconBlock `json:"message"`
	Signature BLSSignature `json:"signature"`
}

func (b *SignedBeaconBlock) SizeSSZ() int {
	if b == nil {
		return signedBeaconBlockFixedSize + beaconBlockFixedSize + beaconBlockBodyFixedSize
	}
	return signedBeaconBlockFixedSize + b.Block.SizeSSZ()
}

func (b *SignedBeaconBlock) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(b) }

func (b *SignedBeaconBlock) MarshalSSZTo(buf []byte) ([]byte, error) {
	if b == nil {
		b = new(SignedBeaconBlock)
	}
	dst := ssz.WriteOffset(buf, signedBeaconBlockFixedSize)
	dst = append(dst, b.Signature[:]...)
	return b.Block.MarshalSSZTo(dst)
}

func (b *SignedBeaconBlock) UnmarshalSSZ(buf []byte) error {
	if len(buf) < signedBeaconBlockFixedSize {
		return ssz.ErrSize
	}
	if ssz.ReadOffset(buf[0:4]) != signedBeaconBlockFixedSize {
		return ssz.ErrOffset
	}
	copy(b.Signature[:], buf[4:100])
	if b.Block == nil {
		b.Block = new(BeaconBlock)
	}
	return b.Block.UnmarshalSSZ(buf[signedBeaconBlockFixedSize:])
}

// Slot returns the slot of the wrapped block, or 0 if there is none.
func (b *SignedBeaconBlock) Slot() Slot {
	if b == nil || b.Block == nil {
		return 0
	}
	return b.Block.Slot
}

// ParentRoot returns the parent root of the wrapped block.
func (b *SignedBeaconBlock) ParentRoot() Root {
	if b == nil || b.Block == nil {
		return ZeroRoot
	}
	return b.Block.ParentRoot
}

// BlockRoot returns the root of the unsigned block.
func (b *SignedBeaconBlock) BlockRoot() (Root, error) {
	if b == nil || b.Block == nil {
		return ZeroRoot, fmt.Errorf("signed block has no message")
	}
	return b.Block.HashRoot()
}
