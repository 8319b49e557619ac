package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads a .env file at path into the process environment if
// it exists, so operators can pin MULTIGREP_* defaults without repeating
// flags on every invocation. A missing file is not an error; godotenv is
// a direct teacher dependency previously exercised only by a test
// fixture, wired here into real startup behavior.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}
