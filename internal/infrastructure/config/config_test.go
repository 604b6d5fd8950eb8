package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSettings_MissingFileKeepsDefaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadSettings_OverridesDefaults(t *testing.T) {
	path := writeFile(t, "settings.yaml", `
server_ip: 192.168.1.81
server_port: 8080
transport: tcp
ecc_enabled: true
reconnect_attempts: 5
reconnect_delay: 250ms
`)

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.81:8080", settings.ServerAddress())
	assert.Equal(t, "tcp", settings.Transport)
	assert.True(t, settings.ECCEnabled)
	assert.Equal(t, 5, settings.ReconnectAttempts)
	assert.Equal(t, Duration(250*time.Millisecond), settings.ReconnectDelay)
}

func TestLoadSettings_PartialFileKeepsRemainingDefaults(t *testing.T) {
	path := writeFile(t, "settings.yaml", "transport: tcp\n")

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp", settings.Transport)
	assert.Equal(t, DefaultSettings().ServerIP, settings.ServerIP)
	assert.Equal(t, DefaultSettings().ReconnectAttempts, settings.ReconnectAttempts)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(s *Settings)
		wantFail bool
	}{
		{name: "Defaults_Valid", mutate: func(s *Settings) {}, wantFail: false},
		{name: "UnknownTransport", mutate: func(s *Settings) { s.Transport = "carrier-pigeon" }, wantFail: true},
		{name: "EmptyServer", mutate: func(s *Settings) { s.ServerIP = "" }, wantFail: true},
		{name: "PortOutOfRange", mutate: func(s *Settings) { s.ServerPort = 70000 }, wantFail: true},
		{name: "NoRetryBudget", mutate: func(s *Settings) { s.ReconnectAttempts = 0 }, wantFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			tt.mutate(&settings)
			err := settings.Validate()
			if tt.wantFail {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVarDir_ReadsKeyValueFile(t *testing.T) {
	path := writeFile(t, "radiation-benchmarks.conf", `
[DEFAULT]
# installation directory
installdir = /home/carol/radiation-benchmarks
vardir = /var/radiation-benchmarks
`)

	varDir, err := VarDir(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/radiation-benchmarks", varDir)
}

func TestVarDir_MissingKeyFails(t *testing.T) {
	path := writeFile(t, "radiation-benchmarks.conf", "installdir = /opt\n")
	_, err := VarDir(path)
	assert.Error(t, err)
}

func TestVarDir_MissingFileFails(t *testing.T) {
	_, err := VarDir(filepath.Join(t.TempDir(), "absent.conf"))
	assert.Error(t, err)
}
