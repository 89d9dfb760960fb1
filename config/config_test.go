package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconkit/beacond/types"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	// set up some defaults
	cfg := DefaultConfig()
	assert.NotNil(cfg.Gossip)
	assert.NotNil(cfg.BlockSync)
	assert.NotNil(cfg.Chain)
	assert.NotNil(cfg.Instrumentation)

	// check the root dir stuff...
	cfg.SetRoot("/foo")
	assert.Equal("/foo/data", cfg.DBDir())
	cfg.DBPath = "/opt/data"
	assert.Equal("/opt/data", cfg.DBDir())
}

func TestConfigValidateBasic(t *testing.T) {
	require.NoError(t, DefaultConfig().ValidateBasic())
	require.NoError(t, TestConfig().ValidateBasic())

	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"log level", func(c *Config) { c.LogLevel = "trace" }},
		{"db backend", func(c *Config) { c.DBBackend = "" }},
		{"fork digest length", func(c *Config) { c.Gossip.ForkDigest = "b5303f" }},
		{"fork digest hex", func(c *Config) { c.Gossip.ForkDigest = "zz303f2a" }},
		{"encoding", func(c *Config) { c.Gossip.Encoding = "json" }},
		{"max concurrent batches", func(c *Config) { c.BlockSync.MaxConcurrentBatches = 0 }},
		{"negative sync channel capacity", func(c *Config) { c.BlockSync.SyncChannelCapacity = -1 }},
		{"zero sync channel capacity", func(c *Config) { c.BlockSync.SyncChannelCapacity = 0 }},
		{"genesis time", func(c *Config) { c.Chain.GenesisTime = -1 }},
		{"seconds per slot", func(c *Config) { c.Chain.SecondsPerSlot = 0 }},
		{"max open connections", func(c *Config) { c.Instrumentation.MaxOpenConnections = -1 }},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(cfg)
			assert.Error(t, cfg.ValidateBasic())
		})
	}
}

func TestSectionErrorsNameTheSection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlockSync.MaxConcurrentBatches = -3
	err := cfg.ValidateBasic()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[blocksync]")
}

func TestGossipDigest(t *testing.T) {
	cfg := DefaultGossipConfig()
	digest, err := cfg.Digest()
	require.NoError(t, err)
	assert.Equal(t, types.ForkDigest{0xb5, 0x30, 0x3f, 0x2a}, digest)
}

func TestChainClock(t *testing.T) {
	cfg := DefaultChainConfig()
	assert.Equal(t, int64(1606824023), cfg.Genesis().Unix())
	assert.Equal(t, "12s", cfg.SlotDuration().String())
}
