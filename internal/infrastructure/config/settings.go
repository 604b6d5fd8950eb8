package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/radhelper/loghelper/internal/core/ports"
)

// Duration accepts YAML values in time.ParseDuration form ("250ms").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"500ms\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// Settings is the client-side configuration: where the collector lives,
// which transport variant to use, and the reconnect bounds for the
// connection-oriented one. The file format is YAML, like the collector's
// machine inventory files.
type Settings struct {
	ServerIP   string `yaml:"server_ip"`
	ServerPort int    `yaml:"server_port"`

	// Transport selects the variant: "udp" or "tcp".
	Transport string `yaml:"transport"`

	// ECCEnabled stamps the ECC flag byte on every wire message.
	ECCEnabled bool `yaml:"ecc_enabled"`

	ReconnectAttempts int      `yaml:"reconnect_attempts"`
	ReconnectDelay    Duration `yaml:"reconnect_delay"`
}

// DefaultSettings targets a local collector over UDP.
func DefaultSettings() Settings {
	return Settings{
		ServerIP:          "127.0.0.1",
		ServerPort:        1024,
		Transport:         string(ports.KindUDP),
		ECCEnabled:        false,
		ReconnectAttempts: 3,
		ReconnectDelay:    Duration(500 * time.Millisecond),
	}
}

// LoadSettings reads a settings file over the defaults. A missing file
// is not an error: the defaults apply unchanged.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("settings %s: %w", path, err)
	}
	return settings, nil
}

// Validate checks the fields that would otherwise fail deep inside the
// transport layer.
func (s Settings) Validate() error {
	if _, err := ports.ParseKind(s.Transport); err != nil {
		return err
	}
	if s.ServerIP == "" {
		return fmt.Errorf("server_ip must be set")
	}
	if s.ServerPort < 1 || s.ServerPort > 65535 {
		return fmt.Errorf("server_port %d out of range", s.ServerPort)
	}
	if s.ReconnectAttempts < 1 {
		return fmt.Errorf("reconnect_attempts must be at least 1")
	}
	return nil
}

// ServerAddress returns the collector endpoint in host:port form.
func (s Settings) ServerAddress() string {
	return net.JoinHostPort(s.ServerIP, strconv.Itoa(s.ServerPort))
}
