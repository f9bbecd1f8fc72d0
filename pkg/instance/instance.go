package instance

import (
	"os"

	"github.com/angelmondragon/movies-backend/pkg/env"
)

const fallbackID = "local"

// GetID identifies the running process in logs: MOVIES_INSTANCE_ID, then the
// platform's DYNO, then the hostname.
func GetID() string {
	if id := env.Get("MOVIES_INSTANCE_ID", ""); id != "" {
		return id
	}
	if id := env.Get("DYNO", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
