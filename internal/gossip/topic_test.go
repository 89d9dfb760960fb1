package gossip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/beaconkit/beacond/types"
)

var testDigest = types.ForkDigest{0xb5, 0x30, 0x3f, 0x2a}

func TestParseTopic(t *testing.T) {
	testCases := []struct {
		topic string
		want  Topic
	}{
		{"/eth2/b5303f2a/beacon_block/ssz", NewTopic(testDigest, KindBeaconBlock, EncodingSSZ)},
		{"/eth2/b5303f2a/beacon_aggregate_and_proof/ssz", NewTopic(testDigest, KindAggregateAndProof, EncodingSSZ)},
		{"/eth2/b5303f2a/voluntary_exit/ssz_snappy", NewTopic(testDigest, KindVoluntaryExit, EncodingSSZSnappy)},
		{"/eth2/b5303f2a/proposer_slashing/ssz", NewTopic(testDigest, KindProposerSlashing, EncodingSSZ)},
		{"/eth2/b5303f2a/attester_slashing/ssz", NewTopic(testDigest, KindAttesterSlashing, EncodingSSZ)},
		{"/eth2/b5303f2a/committee_index0_beacon_attestation/ssz", NewAttestationTopic(testDigest, 0, EncodingSSZ)},
		{"/eth2/b5303f2a/committee_index63_beacon_attestation/ssz", NewAttestationTopic(testDigest, 63, EncodingSSZ)},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.topic, func(t *testing.T) {
			got, err := ParseTopic(tc.topic)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.topic, got.String())
		})
	}
}

func TestParseTopicRejects(t *testing.T) {
	for _, topic := range []string{
		"",
		"/eth2/b5303f2a/beacon_block",
		"/eth2/b5303f2a/beacon_block/ssz/extra",
		"eth2/b5303f2a/beacon_block/ssz",
		"/eth1/b5303f2a/beacon_block/ssz",
		"/eth2/B5303F2A/beacon_block/ssz",
		"/eth2/b5303f2/beacon_block/ssz",
		"/eth2/zz303f2a/beacon_block/ssz",
		"/eth2/b5303f2a/beacon_blocks/ssz",
		"/eth2/b5303f2a/beacon_block/json",
		"/eth2/b5303f2a/committee_index64_beacon_attestation/ssz",
		"/eth2/b5303f2a/committee_index07_beacon_attestation/ssz",
		"/eth2/b5303f2a/committee_index+7_beacon_attestation/ssz",
		"/eth2/b5303f2a/committee_index_beacon_attestation/ssz",
		"/eth2/b5303f2a/committee_index99999999999999999999999_beacon_attestation/ssz",
	} {
		_, err := ParseTopic(topic)
		assert.ErrorIs(t, err, ErrNotGossipTopic, "topic %q", topic)
	}
}

func TestTopicStringRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var digest types.ForkDigest
		copy(digest[:], rapid.SliceOfN(rapid.Byte(), 4, 4).Draw(t, "digest"))
		enc := rapid.SampledFrom(Encodings()).Draw(t, "encoding")
		kind := rapid.SampledFrom([]Kind{
			KindBeaconBlock, KindAggregateAndProof, KindCommitteeIndex,
			KindVoluntaryExit, KindProposerSlashing, KindAttesterSlashing,
		}).Draw(t, "kind")

		want := NewTopic(digest, kind, enc)
		if kind == KindCommitteeIndex {
			want.Subnet = SubnetID(rapid.Uint64Range(0, AttestationSubnetCount-1).Draw(t, "subnet"))
		}

		got, err := ParseTopic(want.String())
		if err != nil {
			t.Fatalf("parse %q: %v", want.String(), err)
		}
		if got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	})
}

func TestParseKind(t *testing.T) {
	for k := KindBeaconBlock; k <= KindAttesterSlashing; k++ {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("beacon_blocks")
	assert.Error(t, err)
}
