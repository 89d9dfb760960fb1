package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	libos "github.com/beaconkit/beacond/libs/os"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

var configTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("configFileTemplate")
	if configTemplate, err = tmpl.Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

/****** these are for production settings ***********/

// EnsureRoot creates the root, config, and data directories if they don't
// exist, and writes a default config file if there is none.
func EnsureRoot(rootDir string) error {
	if err := libos.EnsureDir(rootDir, defaultDirPerm); err != nil {
		return err
	}
	if err := libos.EnsureDir(filepath.Join(rootDir, defaultConfigDir), defaultDirPerm); err != nil {
		return err
	}
	if err := libos.EnsureDir(filepath.Join(rootDir, defaultDataDir), defaultDirPerm); err != nil {
		return err
	}
	return writeDefaultConfigFileIfNone(rootDir)
}

// ConfigFile returns the path of the config file under rootDir.
func ConfigFile(rootDir string) string {
	return filepath.Join(rootDir, defaultConfigFilePath)
}

// WriteConfigFile renders config using the template and writes it to
// the config file under rootDir.
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(ConfigFile(rootDir))
}

// WriteToTemplate writes the config to the exact file specified by
// the path, in the default toml template and does not mangle the path
// or filename at all.
func (cfg *Config) WriteToTemplate(path string) error {
	var buffer bytes.Buffer

	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}

	return libos.WriteFile(path, buffer.Bytes(), 0644)
}

func writeDefaultConfigFileIfNone(rootDir string) error {
	if !libos.FileExists(ConfigFile(rootDir)) {
		return WriteConfigFile(rootDir, DefaultConfig())
	}
	return nil
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/beacond/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.beacond" by default, but could be changed via $BEACOND_HOME env variable
# or --home cmd flag.

#######################################################################
###                   Main Base Config Options                      ###
#######################################################################

# A custom human readable name for this node
moniker = "{{ .BaseConfig.Moniker }}"

# Database backend: goleveldb | memdb
# * goleveldb (github.com/syndtr/goleveldb - most popular implementation)
#   - pure go
#   - stable
# * memdb
#   - nothing survives a restart; for tests and dry runs
db_backend = "{{ .BaseConfig.DBBackend }}"

# Database directory
db_dir = "{{ js .BaseConfig.DBPath }}"

# Output level for logging: debug | info | error
log_level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (text) or 'json'
log_format = "{{ .BaseConfig.LogFormat }}"

#######################################################################
###                 Gossip Configuration Options                    ###
#######################################################################
[gossip]

# Fork digest of the current fork, as 8 hex characters
fork_digest = "{{ .Gossip.ForkDigest }}"

# Wire encoding for published payloads: ssz | ssz_snappy
encoding = "{{ .Gossip.Encoding }}"

#######################################################################
###               Block Sync Configuration Options                  ###
#######################################################################
[blocksync]

# Maximum number of batches imported at the same time
max_concurrent_batches = {{ .BlockSync.MaxConcurrentBatches }}

# Number of results buffered for the sync manager. A result that does not
# fit is dropped.
sync_channel_capacity = {{ .BlockSync.SyncChannelCapacity }}

# Number of slots a block may be ahead of the local clock before it is
# reported as a clock problem rather than a slightly early block
future_slot_tolerance = {{ .BlockSync.FutureSlotTolerance }}

# Run fork choice after a parent lookup that imported new blocks
parent_lookup_fork_choice = {{ .BlockSync.ParentLookupForkChoice }}

#######################################################################
###                  Chain Configuration Options                    ###
#######################################################################
[chain]

# Genesis time, in seconds since the Unix epoch
genesis_time = {{ .Chain.GenesisTime }}

# Slot duration in seconds
seconds_per_slot = {{ .Chain.SecondsPerSlot }}

#######################################################################
###             Instrumentation Configuration Options               ###
#######################################################################
[instrumentation]

# When true, Prometheus metrics are served under /metrics on
# PrometheusListenAddr.
# Check out the documentation for the list of available metrics.
prometheus = {{ .Instrumentation.Prometheus }}

# Address to listen for Prometheus collector(s) connections
prometheus_listen_addr = "{{ .Instrumentation.PrometheusListenAddr }}"

# Maximum number of simultaneous connections.
# If you want to accept a larger number than the default, make sure
# you increase your OS limits.
# 0 - unlimited.
max_open_connections = {{ .Instrumentation.MaxOpenConnections }}

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`

/****** these are for test settings ***********/

// ResetTestRoot creates a fresh root directory under dir with a test config
// written to it.
func ResetTestRoot(dir, testName string) (*Config, error) {
	// create a unique, concurrency-safe test directory under dir
	rootDir, err := os.MkdirTemp(dir, fmt.Sprintf("beacond-%s_", testName))
	if err != nil {
		return nil, err
	}
	if err := EnsureRoot(rootDir); err != nil {
		return nil, err
	}

	cfg := TestConfig().SetRoot(rootDir)
	if err := WriteConfigFile(rootDir, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
