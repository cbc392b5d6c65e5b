package config

import (
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads the first of envFiles found in the working directory and
// returns its name, or "" when there is none. Variables already present in
// the process environment win.
func loadEnvFile() (string, error) {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return name, errors.ConfigError("failed to load env file").
				WithCause(err).
				WithContext("path", name).
				Build()
		}
		return name, nil
	}
	return "", nil
}
