// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Snapshot backends.
const (
	BackendNone     = "none"
	BackendFile     = "file"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

const (
	DefaultAddr          = ":8000"
	DefaultSnapshotDelay = 100 * time.Millisecond
	DefaultLogFile       = "localdynamo.log"
)

// Config holds the process settings.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string

	// SnapshotBackend is one of none, file, bolt or postgres.
	SnapshotBackend string

	// SnapshotPath is the directory for the file backend and the database
	// file for the bolt backend.
	SnapshotPath string

	// PostgresDSN is used by the postgres backend.
	PostgresDSN string

	// SnapshotDelay debounces snapshot writes after a mutation.
	SnapshotDelay time.Duration

	// Shared puts every caller in the default namespace.
	Shared bool

	LogFormat string
	LogLevel  string
	LogFile   string
}

// DefaultConfig returns a Config with default settings.
func DefaultConfig() Config {
	return Config{
		Addr:            DefaultAddr,
		SnapshotBackend: BackendNone,
		SnapshotDelay:   DefaultSnapshotDelay,
		LogLevel:        "warn",
		LogFile:         DefaultLogFile,
	}
}

// Load reads the environment on top of the defaults.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()

	if v, ok := lookup("LOCALDYNAMO_ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := lookup("LOCALDYNAMO_SNAPSHOT_BACKEND"); ok {
		cfg.SnapshotBackend = v
	}
	if v, ok := lookup("LOCALDYNAMO_SNAPSHOT_PATH"); ok {
		cfg.SnapshotPath = v
	}
	if v, ok := lookup("LOCALDYNAMO_PG_DSN"); ok {
		cfg.PostgresDSN = v
	}
	if v, ok := lookup("LOCALDYNAMO_SNAPSHOT_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "LOCALDYNAMO_SNAPSHOT_DELAY")
		}
		cfg.SnapshotDelay = d
	}
	if v, ok := lookup("LOCALDYNAMO_SHARED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "LOCALDYNAMO_SHARED")
		}
		cfg.Shared = b
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		cfg.LogFormat = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup("LOG_FILE"); ok {
		cfg.LogFile = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fills empty settings with defaults and rejects inconsistent ones.
func (c *Config) Validate() error {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.SnapshotDelay <= 0 {
		c.SnapshotDelay = DefaultSnapshotDelay
	}
	c.SnapshotBackend = strings.ToLower(strings.TrimSpace(c.SnapshotBackend))
	if c.SnapshotBackend == "" {
		c.SnapshotBackend = BackendNone
	}

	switch c.SnapshotBackend {
	case BackendNone:
	case BackendFile, BackendBolt:
		if c.SnapshotPath == "" {
			return errors.Newf("snapshot backend %q needs LOCALDYNAMO_SNAPSHOT_PATH", c.SnapshotBackend)
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("snapshot backend \"postgres\" needs LOCALDYNAMO_PG_DSN")
		}
	default:
		return errors.Newf("unknown snapshot backend %q", c.SnapshotBackend)
	}
	return nil
}
