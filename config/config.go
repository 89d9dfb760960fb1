package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/beaconkit/beacond/internal/blocksync"
	"github.com/beaconkit/beacond/internal/gossip"
	"github.com/beaconkit/beacond/libs/log"
	"github.com/beaconkit/beacond/types"
)

// NOTE: Most of the structs & relevant comments + the
// default configuration options were used to manually
// generate the config.toml. Please reflect any changes
// made here in the defaultConfigTemplate constant in
// config/toml.go
// NOTE: libs/cli must know to look in the config dir!
var (
	DefaultBeacondDir = ".beacond"
	defaultConfigDir  = "config"
	defaultDataDir    = "data"

	defaultConfigFileName = "config.toml"
	defaultConfigFilePath = filepath.Join(defaultConfigDir, defaultConfigFileName)
)

// Config defines the top level configuration for a beacond node
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	Gossip          *GossipConfig          `mapstructure:"gossip"`
	BlockSync       *BlockSyncConfig       `mapstructure:"blocksync"`
	Chain           *ChainConfig           `mapstructure:"chain"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration for a beacond node
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		Gossip:          DefaultGossipConfig(),
		BlockSync:       DefaultBlockSyncConfig(),
		Chain:           DefaultChainConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		Gossip:          DefaultGossipConfig(),
		BlockSync:       TestBlockSyncConfig(),
		Chain:           DefaultChainConfig(),
		Instrumentation: TestInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.Gossip.ValidateBasic(); err != nil {
		return errors.Wrap(err, "error in [gossip] section")
	}
	if err := cfg.BlockSync.ValidateBasic(); err != nil {
		return errors.Wrap(err, "error in [blocksync] section")
	}
	if err := cfg.Chain.ValidateBasic(); err != nil {
		return errors.Wrap(err, "error in [chain] section")
	}
	return errors.Wrap(
		cfg.Instrumentation.ValidateBasic(),
		"error in [instrumentation] section",
	)
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration for a beacond node
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// A custom human readable name for this node
	Moniker string `mapstructure:"moniker"`

	// Database backend: goleveldb | memdb
	// * goleveldb (github.com/syndtr/goleveldb - most popular implementation)
	//   - pure go
	//   - stable
	// * memdb
	//   - nothing survives a restart; for tests and dry runs
	DBBackend string `mapstructure:"db_backend"`

	// Database directory
	DBPath string `mapstructure:"db_dir"`

	// Output level for logging: debug | info | error
	LogLevel string `mapstructure:"log_level"`

	// Output format: 'plain' (text) or 'json'
	LogFormat string `mapstructure:"log_format"`
}

// DefaultBaseConfig returns a default base configuration for a beacond node
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		Moniker:   defaultMoniker,
		DBBackend: "goleveldb",
		DBPath:    defaultDataDir,
		LogLevel:  log.LogLevelInfo,
		LogFormat: log.LogFormatPlain,
	}
}

// TestBaseConfig returns a base configuration for testing a beacond node
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.DBBackend = "memdb"
	cfg.LogLevel = log.LogLevelDebug
	return cfg
}

// DBDir returns the full path to the database directory
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case log.LogFormatPlain, log.LogFormatText, log.LogFormatJSON:
	default:
		return errors.New("unknown log_format (must be 'plain', 'text' or 'json')")
	}
	switch cfg.LogLevel {
	case log.LogLevelDebug, log.LogLevelInfo, log.LogLevelError:
	default:
		return errors.New("unknown log_level (must be 'debug', 'info' or 'error')")
	}
	if cfg.DBBackend == "" {
		return errors.New("db_backend can't be empty")
	}
	return nil
}

//-----------------------------------------------------------------------------
// GossipConfig

// GossipConfig defines how gossip topics are named and payloads encoded.
type GossipConfig struct {
	// Fork digest of the current fork, as 8 hex characters. Only topics
	// carrying this digest are rendered by this node.
	ForkDigest string `mapstructure:"fork_digest"`

	// Wire encoding for published payloads: ssz | ssz_snappy
	Encoding string `mapstructure:"encoding"`
}

// DefaultGossipConfig returns a default gossip configuration.
func DefaultGossipConfig() *GossipConfig {
	return &GossipConfig{
		ForkDigest: "b5303f2a",
		Encoding:   string(gossip.EncodingSSZSnappy),
	}
}

// Digest returns the parsed fork digest.
func (cfg *GossipConfig) Digest() (types.ForkDigest, error) {
	return types.ForkDigestFromHex(cfg.ForkDigest)
}

// ValidateBasic performs basic validation.
func (cfg *GossipConfig) ValidateBasic() error {
	if _, err := cfg.Digest(); err != nil {
		return fmt.Errorf("invalid fork_digest: %w", err)
	}
	if _, err := gossip.ParseEncoding(cfg.Encoding); err != nil {
		return err
	}
	return nil
}

//-----------------------------------------------------------------------------
// BlockSyncConfig

// BlockSyncConfig defines the configuration for the block import worker.
type BlockSyncConfig struct {
	// Maximum number of batches imported at the same time.
	MaxConcurrentBatches int `mapstructure:"max_concurrent_batches"`

	// Number of results buffered for the sync manager. A result that does
	// not fit is dropped.
	SyncChannelCapacity int `mapstructure:"sync_channel_capacity"`

	// Number of slots a block may be ahead of the local clock before it is
	// reported as a clock problem rather than a slightly early block.
	FutureSlotTolerance uint64 `mapstructure:"future_slot_tolerance"`

	// Run fork choice after a parent lookup that imported new blocks.
	ParentLookupForkChoice bool `mapstructure:"parent_lookup_fork_choice"`
}

// DefaultBlockSyncConfig returns a default configuration for block sync.
func DefaultBlockSyncConfig() *BlockSyncConfig {
	return &BlockSyncConfig{
		MaxConcurrentBatches:   blocksync.DefaultMaxConcurrentBatches,
		SyncChannelCapacity:    1024,
		FutureSlotTolerance:    uint64(blocksync.DefaultFutureSlotTolerance),
		ParentLookupForkChoice: false,
	}
}

// TestBlockSyncConfig returns a configuration for testing block sync.
func TestBlockSyncConfig() *BlockSyncConfig {
	cfg := DefaultBlockSyncConfig()
	cfg.MaxConcurrentBatches = 2
	cfg.SyncChannelCapacity = 64
	return cfg
}

// ValidateBasic performs basic validation.
func (cfg *BlockSyncConfig) ValidateBasic() error {
	if cfg.MaxConcurrentBatches <= 0 {
		return errors.New("max_concurrent_batches must be positive")
	}
	if cfg.SyncChannelCapacity < 1 {
		return errors.New("sync_channel_capacity must be at least 1")
	}
	return nil
}

//-----------------------------------------------------------------------------
// ChainConfig

// ChainConfig defines the clock of the chain being followed.
type ChainConfig struct {
	// Genesis time, in seconds since the Unix epoch.
	GenesisTime int64 `mapstructure:"genesis_time"`

	// Slot duration in seconds.
	SecondsPerSlot uint64 `mapstructure:"seconds_per_slot"`
}

// DefaultChainConfig returns the mainnet clock.
func DefaultChainConfig() *ChainConfig {
	return &ChainConfig{
		GenesisTime:    1606824023,
		SecondsPerSlot: 12,
	}
}

// Genesis returns the genesis time.
func (cfg *ChainConfig) Genesis() time.Time {
	return time.Unix(cfg.GenesisTime, 0).UTC()
}

// SlotDuration returns the duration of one slot.
func (cfg *ChainConfig) SlotDuration() time.Duration {
	return time.Duration(cfg.SecondsPerSlot) * time.Second
}

// ValidateBasic performs basic validation.
func (cfg *ChainConfig) ValidateBasic() error {
	if cfg.GenesisTime < 0 {
		return errors.New("genesis_time can't be negative")
	}
	if cfg.SecondsPerSlot == 0 {
		return errors.New("seconds_per_slot must be positive")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	// Check out the documentation for the list of available metrics.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus_listen_addr"`

	// Maximum number of simultaneous connections.
	// If you want to accept a larger number than the default, make sure
	// you increase your OS limits.
	// 0 - unlimited.
	MaxOpenConnections int `mapstructure:"max_open_connections"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":5054",
		MaxOpenConnections:   3,
		Namespace:            "beacond",
	}
}

// TestInstrumentationConfig returns a default configuration for metrics
// reporting.
func TestInstrumentationConfig() *InstrumentationConfig {
	return DefaultInstrumentationConfig()
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.MaxOpenConnections < 0 {
		return errors.New("max_open_connections can't be negative")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

//-----------------------------------------------------------------------------
// Moniker

var defaultMoniker = getDefaultMoniker()

// getDefaultMoniker returns a default moniker, which is the host name. If runtime
// fails to get the host name, "anonymous" will be returned.
func getDefaultMoniker() string {
	moniker, err := os.Hostname()
	if err != nil {
		moniker = "anonymous"
	}
	return moniker
}
