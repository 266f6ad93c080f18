package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName     string
	Port       string
	Host       HostConfig
	Slack      SlackConfig
	Turso      TursoConfig
	ProjectID  string
	Supervisor SupervisorConfig
	// DrainInterval is how often the processor polls the request inbox
	// in addition to the push-triggered drains.
	DrainInterval time.Duration
}

// HostConfig identifies the host process. Requests carrying Token are
// treated as coming from OwnerID.
type HostConfig struct {
	OwnerID string
	Token   string
}

type SlackConfig struct {
	Token     string
	ChannelID string
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

type SupervisorConfig struct {
	TopTick       time.Duration
	EvictInterval time.Duration
	StaleAfter    time.Duration
}
