package instance

import "os"

// GetID returns the process instance identifier: the dyno name on Heroku,
// the container hostname elsewhere, or "local".
func GetID() string {
	for _, key := range []string{"DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
