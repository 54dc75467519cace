package config

import "time"

// Config holds the server knobs. Defaults live here; the flag/env surface
// that fills them in lives in cmd/server.
type Config struct {
	Bind      string
	Port      int
	PublicURL string

	CodeLength    int
	RoomMaxAge    time.Duration
	SweepInterval time.Duration
	ResolveDelay  time.Duration

	Verbose bool
}

func Default() Config {
	return Config{
		Bind:          "0.0.0.0",
		Port:          8080,
		PublicURL:     "http://localhost:8080",
		CodeLength:    6,
		RoomMaxAge:    2 * time.Hour,
		SweepInterval: time.Hour,
		ResolveDelay:  time.Second,
	}
}
