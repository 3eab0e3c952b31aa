package config

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/rohankatakam/changectx/internal/errors"
)

// envFiles are tried in order of precedence. godotenv never overrides a variable
// that is already set, so earlier files and the real environment win.
var envFiles = []string{
	".env.local",
	".env",
}

// loadEnvFiles loads .env files from the working directory. Missing files are
// skipped; a file that exists but cannot be parsed is an error.
func loadEnvFiles() error {
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return errors.ConfigErrorf("failed to load %s: %v", file, err).WithContext("file", file)
		}
	}
	return nil
}
