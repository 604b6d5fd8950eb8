package naming

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// timestampLayout orders fields so names sort chronologically.
const timestampLayout = "2006_01_02_15_04_05"

// Namer derives the unique, human-traceable log identifier for a run:
// the benchmark name plus a creation timestamp plus the originating
// host, rooted at the storage directory from the system configuration.
// Purely a naming function; it holds no state beyond its inputs.
type Namer struct {
	varDir string
	host   string

	// Now is the clock used for the timestamp. Overridable in tests.
	Now func() time.Time
}

// New creates a Namer rooted at varDir and labeled with host. An empty
// host is resolved from the local machine.
func New(varDir, host string) *Namer {
	if host == "" {
		host = LocalHost()
	}
	return &Namer{varDir: varDir, host: host, Now: time.Now}
}

// Name computes the log identifier for a benchmark. Each call captures
// a fresh timestamp; a session calls it exactly once at creation.
func (n *Namer) Name(benchmark string) string {
	stamp := n.Now().Format(timestampLayout)
	file := fmt.Sprintf("%s_%s_%s.log", stamp, sanitize(benchmark), sanitize(n.host))
	return filepath.Join(n.varDir, "log", file)
}

// LocalHost identifies the originating machine for the log name: the
// hostname when available, otherwise the first non-loopback IPv4
// address, otherwise "unknown".
func LocalHost() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return "unknown"
}

// sanitize keeps names safe as a single path element.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unnamed"
	}
	return strings.NewReplacer(" ", "_", "/", "_", `\`, "_").Replace(s)
}
