package instance

import "os"

const EnvInstanceID = "ARCHIVER_INSTANCE_ID"

// GetID returns the archiver instance identifier. Pods fall back to their
// hostname so log lines from replicas stay distinguishable.
func GetID() string {
	if id := os.Getenv(EnvInstanceID); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "archiver-0"
}
