package env

import (
	"os"
	"strings"
)

// Prefix namespaces the settlement services' variables.
const Prefix = "HOMEWARD_"

// Get reads HOMEWARD_<key>, then the bare key as set by hosting platforms,
// and finally the fallback.
func Get(key, fallback string) string {
	key = strings.TrimPrefix(key, Prefix)
	if val := strings.TrimSpace(os.Getenv(Prefix + key)); val != "" {
		return val
	}
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
