package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const DefaultConfigPath = "plans.yaml"

// Env holds settings that come from the environment rather than the plans
// file.
type Env struct {
	// DatabaseURL enables persistence of runs when set.
	DatabaseURL string
	ConfigPath  string
	// Namespace seeds the deterministic row ids written to the database.
	Namespace string
	Verbose   bool
}

// LoadEnv reads .env.local when present, then the process environment.
//
// Environment variables:
//   - DATABASE_URL: Postgres DSN (optional)
//   - RESULTS_CONFIG: plans file path (default: plans.yaml)
//   - RESULTS_NAMESPACE: uuid namespace for stored rows (optional)
//   - VERBOSE: "true" or "1" enables debug logging
func LoadEnv() Env {
	_ = godotenv.Load(".env.local")

	path := strings.TrimSpace(os.Getenv("RESULTS_CONFIG"))
	if path == "" {
		path = DefaultConfigPath
	}
	verbose := strings.ToLower(strings.TrimSpace(os.Getenv("VERBOSE")))

	return Env{
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ConfigPath:  path,
		Namespace:   strings.TrimSpace(os.Getenv("RESULTS_NAMESPACE")),
		Verbose:     verbose == "true" || verbose == "1",
	}
}
