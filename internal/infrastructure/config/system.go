package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// The system configuration path is shared with every other
// radiation-benchmark tool on the device; its location and the vardir
// key are fixed by convention.
const (
	DefaultSystemConfigPath = "/etc/radiation-benchmarks.conf"
	varDirKey               = "vardir"
)

// VarDir reads the base storage directory from the system configuration
// file. The file is a flat key=value list with optional [section]
// headers and #/; comments, read once at session creation.
func VarDir(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open system config %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") ||
			strings.HasPrefix(line, "[") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		if strings.TrimSpace(key) == varDirKey {
			value = strings.TrimSpace(value)
			if value == "" {
				break
			}
			return value, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read system config %s: %w", path, err)
	}
	return "", fmt.Errorf("system config %s: %s key not found", path, varDirKey)
}
