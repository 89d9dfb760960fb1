package types

import (
	ssz "github.com/ferranbt/fastssz"
)

const (
	beaconBlockHeaderSize       = 8 + 8 + 3*RootLength
	signedBeaconBlockHeaderSize = beaconBlockHeaderSize + SignatureLength
	proposerSlashingSize        = 2 * signedBeaconBlockHeaderSize
	voluntaryExitSize           = 16
	signedVoluntaryExitSize     = voluntaryExitSize + SignatureLength
	attesterSlashingFixedSize   = 2 * bytesPerLengthOffset
)

type BeaconBlockHeader struct {
	Slot          Slot           `json:"slot"`
	ProposerIndex ValidatorIndex `json:"proposer_index"`
	ParentRoot    Root           `json:"parent_root"`
	StateRoot     Root           `json:"state_root"`
	BodyRoot      Root           `json:"body_root"`
}

func (h *BeaconBlockHeader) SizeSSZ() int { return beaconBlockHeaderSize }

func (h *BeaconBlockHeader) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(h) }

func (h *BeaconBlockHeader) MarshalSSZTo(buf []byte) ([]byte, error) {
	if h == nil {
		h = new(BeaconBlockHeader)
	}
	dst := ssz.MarshalUint64(buf, uint64(h.Slot))
	dst = ssz.MarshalUint64(dst, uint64(h.ProposerIndex))
	dst = append(dst, h.ParentRoot[:]...)
	dst = append(dst, h.StateRoot[:]...)
	return append(dst, h.BodyRoot[:]...), nil
}

func (h *BeaconBlockHeader) UnmarshalSSZ(buf []byte) error {
	if len(buf) != beaconBlockHeaderSize {
		return ssz.ErrSize
	}
	h.Slot = Slot(ssz.UnmarshallUint64(buf[0:8]))
	h.ProposerIndex = ValidatorIndex(ssz.UnmarshallUint64(buf[8:16]))
	copy(h.ParentRoot[:], buf[16:48])
	copy(h.StateRoot[:], buf[48:80])
	copy(h.BodyRoot[:], buf[80:112])
	return nil
}

type SignedBeaconBlockHeader struct {
	Message   *BeaconBlockHeader `json:"message"`
	Signature BLSSignature       `json:"signature"`
}

func (h *SignedBeaconBlockHeader) SizeSSZ() int { return signedBeaconBlockHeaderSize }

func (h *SignedBeaconBlockHeader) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(h) }

func (h *SignedBeaconBlockHeader) MarshalSSZTo(buf []byte) ([]byte, error) {
	if h == nil {
		h = new(SignedBeaconBlockHeader)
	}
	dst, _ := h.Message.MarshalSSZTo(buf)
	return append(dst, h.Signature[:]...), nil
}

func (h *SignedBeaconBlockHeader) UnmarshalSSZ(buf []byte) error {
	if len(buf) != signedBeaconBlockHeaderSize {
		return ssz.ErrSize
	}
	if h.Message == nil {
		h.Message = new(BeaconBlockHeader)
	}
	if err := h.Message.UnmarshalSSZ(buf[:beaconBlockHeaderSize]); err != nil {
		return err
	}
	copy(h.Signature[:], buf[beaconBlockHeaderSize:])
	return nil
}

// ProposerSlashing proves a proposer signed two different blocks for one slot.
type ProposerSlashing struct {
	Header1 *SignedBeaconBlockHeader `json:"signed_header_1"`
	Header2 *SignedBeaconBlockHeader `json:"signed_header_2"`
}

func (s *ProposerSlashing) SizeSSZ() int { return proposerSlashingSize }

func (s *ProposerSlashing) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(s) }

func (s *ProposerSlashing) MarshalSSZTo(buf []byte) ([]byte, error) {
	if s == nil {
		s = new(ProposerSlashing)
	}
	dst, _ := s.Header1.MarshalSSZTo(buf)
	return s.Header2.MarshalSSZTo(dst)
}

func (s *ProposerSlashing) UnmarshalSSZ(buf []byte) error {
	if len(buf) != proposerSlashingSize {
		return ssz.ErrSize
	}
	if s.Header1 == nil {
		s.Header1 = new(SignedBeaconBlockHeader)
	}
	if s.Header2 == nil {
		s.Header2 = new(SignedBeaconBlockHeader)
	}
	if err := s.Header1.UnmarshalSSZ(buf[:signedBeaconBlockHeaderSize]); err != nil {
		return err
	}
	return s.Header2.UnmarshalSSZ(buf[signedBeaconBlockHeaderSize:])
}

// AttesterSlashing proves two conflicting attestations.
type AttesterSlashing struct {
	Attestation1 *IndexedAttestation `json:"attestation_1"`
	Attestation2 *IndexedAttestation `json:"attestation_2"`
}

func (s *AttesterSlashing) SizeSSZ() int {
	if s == nil {
		return attesterSlashingFixedSize + 2*attestationFixedSize
	}
	return attesterSlashingFixedSize + s.Attestation1.SizeSSZ() + s.Attestation2.SizeSSZ()
}

func (s *AttesterSlashing) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(s) }

func (s *AttesterSlashing) MarshalSSZTo(buf []byte) ([]byte, error) {
	if s == nil {
		s = new(AttesterSlashing)
	}
	offset := attesterSlashingFixedSize
	dst := ssz.WriteOffset(buf, offset)
	offset += s.Attestation1.SizeSSZ()
	dst = ssz.WriteOffset(dst, offset)

	dst, err := s.Attestation1.MarshalSSZTo(dst)
	if err != nil {
		return nil, err
	}
	return s.Attestation2.MarshalSSZTo(dst)
}

func (s *AttesterSlashing) UnmarshalSSZ(buf []byte) error {
	if len(buf) < attesterSlashingFixedSize {
		return ssz.ErrSize
	}
	offsets, err := readOffsets(buf, 0, 2, attesterSlashingFixedSize)
	if err != nil {
		return err
	}
	if s.Attestation1 == nil {
		s.Attestation1 = new(IndexedAttestation)
	}
	if err := s.Attestation1.UnmarshalSSZ(buf[offsets[0]:offsets[1]]); err != nil {
		return err
	}
	if s.Attestation2 == nil {
		s.Attestation2 = new(IndexedAttestation)
	}
	return s.Attestation2.UnmarshalSSZ(buf[offsets[1]:offsets[2]])
}

type VoluntaryExit struct {
	Epoch          Epoch          `json:"epoch"`
	ValidatorIndex ValidatorIndex `json:"validator_index"`
}

func (e *VoluntaryExit) SizeSSZ() int { return voluntaryExitSize }

func (e *VoluntaryExit) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(e) }

func (e *VoluntaryExit) MarshalSSZTo(buf []byte) ([]byte, error) {
	if e == nil {
		e = new(VoluntaryExit)
	}
	dst := ssz.MarshalUint64(buf, uint64(e.Epoch))
	return ssz.MarshalUint64(dst, uint64(e.ValidatorIndex)), nil
}

func (e *VoluntaryExit) UnmarshalSSZ(buf []byte) error {
	if len(buf) != voluntaryExitSize {
		return ssz.ErrSize
	}
	e.Epoch = Epoch(ssz.UnmarshallUint64(buf[0:8]))
	e.ValidatorIndex = ValidatorIndex(ssz.UnmarshallUint64(buf[8:16]))
	return nil
}

type SignedVoluntaryExit struct {
	Message   *VoluntaryExit `json:"message"`
	Signature BLSSignature   `json:"signature"`
}

func (e *SignedVoluntaryExit) SizeSSZ() int { return signedVoluntaryExitSize }

func (e *SignedVoluntaryExit) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(e) }

func (e *SignedVoluntaryExit) MarshalSSZTo(buf []byte) ([]byte, error) {
	if e == nil {
		e = new(SignedVoluntaryExit)
	}
	dst, _ := e.Message.MarshalSSZTo(buf)
	return append(dst, e.Signature[:]...), nil
}

func (e *SignedVoluntaryExit) UnmarshalSSZ(buf []byte) error {
	if len(buf) != signedVoluntaryExitSize {
		return ssz.ErrSize
	}
	if e.Message == nil {
		e.Message = new(VoluntaryExit)
	}
	if err := e.Message.UnmarshalSSZ(buf[:voluntaryExitSize]); err != nil {
		return err
	}
	copy(e.Signature[:], buf[voluntaryExitSize:])
	return nil
}

type Eth1Data struct {
	DepositRoot  Root   `json:"deposit_root"`
	DepositCount uint64 `json:"deposit_count"`
	BlockHash    Root   `json:"block_hash"`
}

const eth1DataSize = 2*RootLength + 8

func (e *Eth1Data) SizeSSZ() int { return eth1DataSize }

func (e *Eth1Data) MarshalSSZ() ([]byte, error) { return ssz.MarshalSSZ(e) }

func (e *Eth1Data) MarshalSSZTo(buf []byte) ([]byte, error) {
	if e == nil {
		e = new(Eth1Data)
	}
	dst := append(buf, e.DepositRoot[:]...)
	dst = ssz.MarshalUint64(dst, e.DepositCount)
	return append(dst, e.BlockHash[:]...), nil
}

func (e *Eth1Data) UnmarshalSSZ(buf []byte) error {
	if len(buf) != eth1DataSize {
		return ssz.ErrSize
	}
	copy(e.DepositRoot[:], buf[0:32])
	e.DepositCount = ssz.UnmarshallUint64(buf[32:40])
	copy(e.BlockHash[:], buf[40:72])
	return nil
}
