package redis

import "fmt"

const (
	// KeyPrefixSummary is the prefix for per-host discovery summaries
	KeyPrefixSummary = "cmk:discovery:summary:"
	// KeyPrefixLock is the prefix for per-host discovery locks
	KeyPrefixLock = "cmk:discovery:lock:"
	// KeyAllHosts is the key for the set of hosts with a summary
	KeyAllHosts = "cmk:discovery:hosts"
)

// SummaryKey returns the Redis key for the summary of host
func SummaryKey(host string) string {
	return KeyPrefixSummary + host
}

// LockKey returns the Redis key for the discovery lock of host
func LockKey(host string) string {
	return KeyPrefixLock + host
}

// AllHostsKey returns the key for the set of hosts with a summary
func AllHostsKey() string {
	return KeyAllHosts
}

// ExtractHost extracts the host name from a summary or lock key
func ExtractHost(key string) (string, error) {
	for _, prefix := range []string{KeyPrefixSummary, KeyPrefixLock} {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			return key[len(prefix):], nil
		}
	}
	return "", fmt.Errorf("invalid discovery key: %s", key)
}
