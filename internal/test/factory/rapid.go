package factory

import (
	"pgregory.net/rapid"

	"github.com/beaconkit/beacond/types"
)

// Generators for property tests. Every generated object has its nested
// containers populated, so an SSZ round trip reproduces it exactly up to the
// nil/empty distinction for slices.

func bytesN(t *rapid.T, n int, label string) []byte {
	return rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, label)
}

func RootGen() *rapid.Generator[types.Root] {
	return rapid.Custom(func(t *rapid.T) types.Root {
		var r types.Root
		copy(r[:], bytesN(t, types.RootLength, "root"))
		return r
	})
}

func SignatureGen() *rapid.Generator[types.BLSSignature] {
	return rapid.Custom(func(t *rapid.T) types.BLSSignature {
		var s types.BLSSignature
		copy(s[:], bytesN(t, types.SignatureLength, "signature"))
		return s
	})
}

// BitlistGen draws a well-formed SSZ bitlist: the last byte carries the
// delimiter bit and is therefore never zero.
func BitlistGen() *rapid.Generator[[]byte] {
	return rapid.Custom(func(t *rapid.T) []byte {
		bits := rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(t, "bits")
		return append(bits, rapid.ByteRange(1, 255).Draw(t, "delimiter"))
	})
}

func CheckpointGen() *rapid.Generator[*types.Checkpoint] {
	return rapid.Custom(func(t *rapid.T) *types.Checkpoint {
		return &types.Checkpoint{
			Epoch: types.Epoch(rapid.Uint64().Draw(t, "epoch")),
			Root:  RootGen().Draw(t, "root"),
		}
	})
}

func AttestationDataGen() *rapid.Generator[*types.AttestationData] {
	return rapid.Custom(func(t *rapid.T) *types.AttestationData {
		return &types.AttestationData{
			Slot:            types.Slot(rapid.Uint64().Draw(t, "slot")),
			Index:           types.CommitteeIndex(rapid.Uint64().Draw(t, "index")),
			BeaconBlockRoot: RootGen().Draw(t, "beacon_block_root"),
			Source:          CheckpointGen().Draw(t, "source"),
			Target:          CheckpointGen().Draw(t, "target"),
		}
	})
}

func AttestationGen() *rapid.Generator[*types.Attestation] {
	return rapid.Custom(func(t *rapid.T) *types.Attestation {
		return &types.Attestation{
			AggregationBits: BitlistGen().Draw(t, "aggregation_bits"),
			Data:            AttestationDataGen().Draw(t, "data"),
			Signature:       SignatureGen().Draw(t, "signature"),
		}
	})
}

func IndexedAttestationGen() *rapid.Generator[*types.IndexedAttestation] {
	return rapid.Custom(func(t *rapid.T) *types.IndexedAttestation {
		raw := rapid.SliceOfN(rapid.Uint64(), 0, 8).Draw(t, "attesting_indices")
		indices := make([]types.ValidatorIndex, len(raw))
		for i, idx := range raw {
			indices[i] = types.ValidatorIndex(idx)
		}
		return &types.IndexedAttestation{
			AttestingIndices: indices,
			Data:             AttestationDataGen().Draw(t, "data"),
			Signature:        SignatureGen().Draw(t, "signature"),
		}
	})
}

func AggregateAndProofGen() *rapid.Generator[*types.AggregateAndProof] {
	return rapid.Custom(func(t *rapid.T) *types.AggregateAndProof {
		return &types.AggregateAndProof{
			AggregatorIndex: types.ValidatorIndex(rapid.Uint64().Draw(t, "aggregator_index")),
			Aggregate:       AttestationGen().Draw(t, "aggregate"),
			SelectionProof:  SignatureGen().Draw(t, "selection_proof"),
		}
	})
}

func SignedBeaconBlockHeaderGen() *rapid.Generator[*types.SignedBeaconBlockHeader] {
	return rapid.Custom(func(t *rapid.T) *types.SignedBeaconBlockHeader {
		return &types.SignedBeaconBlockHeader{
			Message: &types.BeaconBlockHeader{
				Slot:          types.Slot(rapid.Uint64().Draw(t, "slot")),
				ProposerIndex: types.ValidatorIndex(rapid.Uint64().Draw(t, "proposer_index")),
				ParentRoot:    RootGen().Draw(t, "parent_root"),
				StateRoot:     RootGen().Draw(t, "state_root"),
				BodyRoot:      RootGen().Draw(t, "body_root"),
			},
			Signature: SignatureGen().Draw(t, "signature"),
		}
	})
}

func ProposerSlashingGen() *rapid.Generator[*types.ProposerSlashing] {
	return rapid.Custom(func(t *rapid.T) *types.ProposerSlashing {
		return &types.ProposerSlashing{
			Header1: SignedBeaconBlockHeaderGen().Draw(t, "header_1"),
			Header2: SignedBeaconBlockHeaderGen().Draw(t, "header_2"),
		}
	})
}

func AttesterSlashingGen() *rapid.Generator[*types.AttesterSlashing] {
	return rapid.Custom(func(t *rapid.T) *types.AttesterSlashing {
		return &types.AttesterSlashing{
			Attestation1: IndexedAttestationGen().Draw(t, "attestation_1"),
			Attestation2: IndexedAttestationGen().Draw(t, "attestation_2"),
		}
	})
}

func SignedVoluntaryExitGen() *rapid.Generator[*types.SignedVoluntaryExit] {
	return rapid.Custom(func(t *rapid.T) *types.SignedVoluntaryExit {
		return &types.SignedVoluntaryExit{
			Message: &types.VoluntaryExit{
				Epoch:          types.Epoch(rapid.Uint64().Draw(t, "epoch")),
				ValidatorIndex: types.ValidatorIndex(rapid.Uint64().Draw(t, "validator_index")),
			},
			Signature: SignatureGen().Draw(t, "signature"),
		}
	})
}

func SignedBeaconBlockGen() *rapid.Generator[*types.SignedBeaconBlock] {
	return rapid.Custom(func(t *rapid.T) *types.SignedBeaconBlock {
		var graffiti types.Graffiti
		copy(graffiti[:], bytesN(t, types.GraffitiLength, "graffiti"))
		return &types.SignedBeaconBlock{
			Block: &types.BeaconBlock{
				Slot:          types.Slot(rapid.Uint64().Draw(t, "slot")),
				ProposerIndex: types.ValidatorIndex(rapid.Uint64().Draw(t, "proposer_index")),
				ParentRoot:    RootGen().Draw(t, "parent_root"),
				StateRoot:     RootGen().Draw(t, "state_root"),
				Body: &types.BeaconBlockBody{
					RandaoReveal: SignatureGen().Draw(t, "randao_reveal"),
					Eth1Data: &types.Eth1Data{
						DepositRoot:  RootGen().Draw(t, "deposit_root"),
						DepositCount: rapid.Uint64().Draw(t, "deposit_count"),
						BlockHash:    RootGen().Draw(t, "block_hash"),
					},
					Graffiti:          graffiti,
					ProposerSlashings: rapid.SliceOfN(ProposerSlashingGen(), 0, 2).Draw(t, "proposer_slashings"),
					AttesterSlashings: rapid.SliceOfN(AttesterSlashingGen(), 0, types.MaxAttesterSlashings).Draw(t, "attester_slashings"),
					Attestations:      rapid.SliceOfN(AttestationGen(), 0, 3).Draw(t, "attestations"),
					VoluntaryExits:    rapid.SliceOfN(SignedVoluntaryExitGen(), 0, 2).Draw(t, "voluntary_exits"),
				},
			},
			Signature: SignatureGen().Draw(t, "signature"),
		}
	})
}
