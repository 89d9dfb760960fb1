package commands

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconkit/beacond/internal/chain"
	"github.com/beaconkit/beacond/internal/gossip"
	"github.com/beaconkit/beacond/internal/test/factory"
	"github.com/beaconkit/beacond/node"
	"github.com/beaconkit/beacond/types"
)

var genesisRoot = factory.MustBlockRoot(chain.GenesisBlock())

func decodeOutput(t *testing.T, out string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

// writeBlocks writes each block as an encoded beacon_block payload and
// returns the file names.
func writeBlocks(t *testing.T, enc gossip.Encoding, blocks []*types.SignedBeaconBlock) []string {
	t.Helper()
	dir := t.TempDir()
	files := make([]string, len(blocks))
	for i, b := range blocks {
		bz, err := gossip.EncodeMessage(gossip.NewBeaconBlockMessage(b), enc)
		require.NoError(t, err)
		files[i] = filepath.Join(dir, fmt.Sprintf("block_%d.%s", b.Slot(), enc))
		require.NoError(t, os.WriteFile(files[i], bz, 0600))
	}
	return files
}

func TestInitCommand(t *testing.T) {
	root := t.TempDir()

	for i := 0; i < 2; i++ {
		out, err := runCmd(t, clearConfig(t), "init", "--home", root)
		require.NoError(t, err)

		var status headStatus
		decodeOutput(t, out, &status)
		assert.Equal(t, genesisRoot, status.Root)
		assert.Zero(t, status.Slot)
	}
	assert.FileExists(t, filepath.Join(root, "config", "config.toml"))
	assert.DirExists(t, filepath.Join(root, "data", "blockstore.db"))
}

func TestTopicCommand(t *testing.T) {
	home := t.TempDir()

	out, err := runCmd(t, clearConfig(t), "topic", "--home", home,
		"/eth2/b5303f2a/committee_index5_beacon_attestation/ssz_snappy")
	require.NoError(t, err)

	var info map[string]interface{}
	decodeOutput(t, out, &info)
	assert.Equal(t, "b5303f2a", info["fork_digest"])
	assert.Equal(t, "committee_index_beacon_attestation", info["kind"])
	assert.EqualValues(t, 5, info["subnet"])
	assert.Equal(t, "ssz_snappy", info["encoding"])

	out, err = runCmd(t, clearConfig(t), "topic", "--home", home, "/eth2/b5303f2a/beacon_block/ssz")
	require.NoError(t, err)
	info = nil
	decodeOutput(t, out, &info)
	assert.Equal(t, "beacon_block", info["kind"])
	assert.NotContains(t, info, "subnet")

	_, err = runCmd(t, clearConfig(t), "topic", "--home", home, "/eth2/b5303f2a/beacon_block/json")
	assert.ErrorIs(t, err, gossip.ErrNotGossipTopic)
}

func TestEncodeTopicCommand(t *testing.T) {
	home := t.TempDir()

	testCases := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "config defaults",
			args: []string{"--kind", "beacon_block"},
			want: "/eth2/b5303f2a/beacon_block/ssz_snappy",
		},
		{
			name: "attestation subnet",
			args: []string{"--kind", "committee_index_beacon_attestation", "--subnet", "7", "--encoding", "ssz", "--fork-digest", "01020304"},
			want: "/eth2/01020304/committee_index7_beacon_attestation/ssz",
		},
		{
			name: "last subnet",
			args: []string{"--kind", "committee_index_beacon_attestation", "--subnet", "63"},
			want: "/eth2/b5303f2a/committee_index63_beacon_attestation/ssz_snappy",
		},
		{name: "subnet out of range", args: []string{"--kind", "committee_index_beacon_attestation", "--subnet", "64"}, wantErr: true},
		{name: "subnet on other kind", args: []string{"--kind", "voluntary_exit", "--subnet", "1"}, wantErr: true},
		{name: "unknown kind", args: []string{"--kind", "beacon_blocks"}, wantErr: true},
		{name: "missing kind", args: nil, wantErr: true},
		{name: "bad encoding", args: []string{"--kind", "beacon_block", "--encoding", "json"}, wantErr: true},
		{name: "bad digest", args: []string{"--kind", "beacon_block", "--fork-digest", "b5303f"}, wantErr: true},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"encode-topic", "--home", home}, tc.args...)
			out, err := runCmd(t, clearConfig(t), args...)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			var info topicInfo
			decodeOutput(t, out, &info)
			assert.Equal(t, tc.want, info.Topic)

			parsed, err := gossip.ParseTopic(info.Topic)
			require.NoError(t, err)
			assert.Equal(t, newTopicInfo(parsed), info)
		})
	}
}

func TestDecodeCommand(t *testing.T) {
	home := t.TempDir()
	block := factory.MakeBlock(12, types.Root{0x01})
	file := writeBlocks(t, gossip.EncodingSSZSnappy, []*types.SignedBeaconBlock{block})[0]

	out, err := runCmd(t, clearConfig(t), "decode", "--home", home,
		"--topic", "/eth2/b5303f2a/beacon_blocks/ssz_snappy",
		"--topic", "/eth2/b5303f2a/beacon_block/ssz_snappy",
		file)
	require.NoError(t, err)

	var decoded struct {
		Kind    string                    `json:"kind"`
		Message gossip.BeaconBlockMessage `json:"message"`
	}
	decodeOutput(t, out, &decoded)
	assert.Equal(t, "beacon_block", decoded.Kind)
	require.NotNil(t, decoded.Message.Block)
	assert.Equal(t, factory.MustBlockRoot(block), factory.MustBlockRoot(decoded.Message.Block))

	_, err = runCmd(t, clearConfig(t), "decode", "--home", home,
		"--topic", "/eth2/b5303f2a/beacon_blocks/ssz_snappy", file)
	assert.ErrorIs(t, err, gossip.ErrUnknownTopics)

	truncated := filepath.Join(t.TempDir(), "truncated")
	require.NoError(t, os.WriteFile(truncated, []byte{0x01, 0x02, 0x03}, 0600))
	_, err = runCmd(t, clearConfig(t), "decode", "--home", home,
		"--topic", "/eth2/b5303f2a/beacon_block/ssz", truncated)
	assert.ErrorIs(t, err, gossip.ErrDecodeFailure)

	_, err = runCmd(t, clearConfig(t), "decode", "--home", home, file)
	assert.Error(t, err, "--topic is required")
}

func testPeerID(t *testing.T) peer.ID {
	t.Helper()
	sk, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)
	id, err := peer.IDFromPrivateKey(sk)
	require.NoError(t, err)
	return id
}

func TestImportCommandRangeBatch(t *testing.T) {
	home := t.TempDir()
	blocks := factory.MakeChain(genesisRoot, 1, 3)
	files := writeBlocks(t, gossip.EncodingSSZ, blocks)

	out, err := runCmd(t, clearConfig(t), append([]string{"import", "--home", home, "--batch-id", "7"}, files...)...)
	require.NoError(t, err)

	var res importResult
	decodeOutput(t, out, &res)
	assert.Equal(t, "range_batch", res.Mode)
	require.NotNil(t, res.BatchID)
	assert.EqualValues(t, 7, *res.BatchID)
	assert.Equal(t, 3, res.Blocks)
	assert.Equal(t, "success", res.Result)
	assert.Empty(t, res.Error)
	assert.Equal(t, factory.MustBlockRoot(blocks[2]), res.HeadRoot)
	assert.Equal(t, types.Slot(3), res.HeadSlot)

	// importing the same batch again is a success that changes nothing
	out, err = runCmd(t, clearConfig(t), append([]string{"import", "--home", home}, files...)...)
	require.NoError(t, err)
	res = importResult{}
	decodeOutput(t, out, &res)
	assert.Equal(t, "success", res.Result)
	assert.Equal(t, types.Slot(3), res.HeadSlot)

	orphans := writeBlocks(t, gossip.EncodingSSZSnappy, factory.MakeChain(types.Root{0xee}, 10, 2))
	out, err = runCmd(t, clearConfig(t), append([]string{"import", "--home", home, "--encoding", "ssz_snappy"}, orphans...)...)
	require.ErrorIs(t, err, ErrBatchFailed)
	res = importResult{}
	decodeOutput(t, out, &res)
	assert.Equal(t, "failed", res.Result)
	assert.Contains(t, res.Error, "unknown parent")
	assert.Equal(t, types.Slot(3), res.HeadSlot)
}

func TestImportCommandParentLookup(t *testing.T) {
	home := t.TempDir()
	from := testPeerID(t)
	blocks := factory.MakeChain(genesisRoot, 1, 3)
	// parent lookups deliver the newest block first
	files := writeBlocks(t, gossip.EncodingSSZ, factory.Reversed(blocks))

	out, err := runCmd(t, clearConfig(t), append([]string{"import", "--home", home, "--peer", from.String()}, files...)...)
	require.NoError(t, err)

	var res importResult
	decodeOutput(t, out, &res)
	assert.Equal(t, "parent_lookup", res.Mode)
	assert.Nil(t, res.BatchID)
	assert.Equal(t, from.String(), res.Peer)
	assert.Equal(t, "success", res.Result)
	// no fork choice after a parent lookup by default
	assert.Equal(t, genesisRoot, res.HeadRoot)

	orphans := writeBlocks(t, gossip.EncodingSSZ, factory.Reversed(factory.MakeChain(types.Root{0xee}, 10, 2)))
	out, err = runCmd(t, clearConfig(t), append([]string{"import", "--home", home, "--peer", from.String()}, orphans...)...)
	require.ErrorIs(t, err, node.ErrParentLookupFailed)
	res = importResult{}
	decodeOutput(t, out, &res)
	assert.Equal(t, "failed", res.Result)

	_, err = runCmd(t, clearConfig(t), "import", "--home", home, "--peer", "not-a-peer", files[0])
	assert.Error(t, err)
}

func TestImportCommandRejectsBadFiles(t *testing.T) {
	home := t.TempDir()
	bad := filepath.Join(t.TempDir(), "bad")
	require.NoError(t, os.WriteFile(bad, []byte("not a block"), 0600))

	_, err := runCmd(t, clearConfig(t), "import", "--home", home, bad)
	assert.ErrorIs(t, err, gossip.ErrDecodeFailure)

	_, err = runCmd(t, clearConfig(t), "import", "--home", home, filepath.Join(home, "missing"))
	assert.Error(t, err)

	_, err = runCmd(t, clearConfig(t), "import", "--home", home)
	assert.Error(t, err)
}
