// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(env(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadEnvironment(t *testing.T) {
	cfg, err := load(env(map[string]string{
		"LOCALDYNAMO_ADDR":             ":9000",
		"LOCALDYNAMO_SNAPSHOT_BACKEND": "BOLT",
		"LOCALDYNAMO_SNAPSHOT_PATH":    "/tmp/state.db",
		"LOCALDYNAMO_SNAPSHOT_DELAY":   "250ms",
		"LOCALDYNAMO_SHARED":           "true",
		"LOG_LEVEL":                    "debug",
		"LOG_FILE":                     "",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, BackendBolt, cfg.SnapshotBackend)
	assert.Equal(t, 250*time.Millisecond, cfg.SnapshotDelay)
	assert.True(t, cfg.Shared)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"zero value", Config{}, true},
		{"file without path", Config{SnapshotBackend: BackendFile}, false},
		{"postgres without dsn", Config{SnapshotBackend: BackendPostgres}, false},
		{"postgres", Config{SnapshotBackend: BackendPostgres, PostgresDSN: "host=db"}, true},
		{"unknown", Config{SnapshotBackend: "redis"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			err := cfg.Validate()
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, DefaultAddr, cfg.Addr)
				assert.Equal(t, DefaultSnapshotDelay, cfg.SnapshotDelay)
				return
			}
			assert.Error(t, err)
		})
	}

	_, err := load(env(map[string]string{"LOCALDYNAMO_SNAPSHOT_DELAY": "soon"}))
	assert.Error(t, err)
}
