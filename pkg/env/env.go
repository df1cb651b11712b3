// Package env reads environment variables needed before config loading,
// such as the service name the logger stamps on startup lines.
package env

import "os"

// Get returns the variable's value, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
