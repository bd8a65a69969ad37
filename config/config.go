// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config defines the runtime configuration surface of pythd and
// parses it from command line flags and environment variables. Consensus
// constants live in chainparams; nothing here affects block validity.
package config

import (
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/pythnetwork/pythd/chainparams"
)

const (
	logFilename = "pythd.log"
)

var (
	defaultLogDir = filepath.Join(".", "logs")
	activeConfig  *Config
)

// ActiveConfig returns the active configuration struct
func ActiveConfig() *Config {
	return activeConfig
}

// Config defines the configuration options for pythd.
type Config struct {
	APIPort int `long:"apiport" env:"API_PORT" default:"5000" description:"Port the wallet/explorer facade binds to"`

	P2PHost string `long:"p2phost" env:"P2P_HOST" default:"0.0.0.0" description:"Host the peer-to-peer listener binds to"`
	P2PPort int    `long:"p2pport" env:"P2P_PORT" default:"0" description:"Port the peer-to-peer listener binds to (default: network port)"`
	P2PSeeds string `long:"seeds" env:"P2P_SEEDS" description:"Comma-separated host:port seed peers dialed at startup"`
	PeerMode bool   `long:"peer" env:"PEER" description:"Run as an ephemeral peer on randomized ports"`

	SyncInterval int64 `long:"syncinterval" env:"P2P_SYNC_INTERVAL_SECONDS" default:"10" description:"Seconds between periodic chain sync requests"`

	DisableAutoMine      bool   `long:"noautomine" env:"AUTO_MINE_DISABLED" description:"Disable the automatic miner"`
	MinerAddressOverride string `long:"mineraddress" env:"MINER_ADDRESS_OVERRIDE" description:"Pay block rewards to this address instead of the node wallet"`
	MinerName            string `long:"minername" env:"MINER_NAME" default:"Miner" description:"Display name of this miner"`

	AutoRefreshSeconds int `long:"autorefresh" env:"AUTO_REFRESH_SECONDS" default:"1" description:"Explorer auto-refresh interval; 0 disables"`

	PrivateKey string `long:"privatekey" env:"NODE_PRIVATE_KEY" description:"Node wallet private key, PEM or raw hex scalar (default: generate)"`

	Simnet bool `long:"simnet" description:"Use the simulation test network"`

	DebugLevel string `short:"d" long:"debuglevel" default:"info" description:"Logging level {trace, debug, info, warn, error, critical} or subsystem=level pairs"`
	LogDir     string `long:"logdir" description:"Directory to log output"`
}

// NetParams returns the consensus parameters of the selected network.
func (cfg *Config) NetParams() *chainparams.Params {
	if cfg.Simnet {
		return &chainparams.SimnetParams
	}
	return &chainparams.MainnetParams
}

// SeedList splits the comma-separated seed string into addresses.
func (cfg *Config) SeedList() []string {
	var seeds []string
	for _, seed := range strings.Split(cfg.P2PSeeds, ",") {
		seed = strings.TrimSpace(seed)
		if seed != "" {
			seeds = append(seeds, seed)
		}
	}
	return seeds
}

// LogFile returns the path of the rotating log file.
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, logFilename)
}

// Parse parses the CLI arguments and environment and returns a config
// struct.
func Parse() (*Config, error) {
	cfg := &Config{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if cfg.LogDir == "" {
		cfg.LogDir = defaultLogDir
	}
	if cfg.P2PPort == 0 {
		cfg.P2PPort = cfg.NetParams().DefaultP2PPort
	}
	if cfg.SyncInterval <= 0 {
		return nil, errors.New("syncinterval must be positive")
	}

	activeConfig = cfg
	return cfg, nil
}
