package config

import (
	"os"

	"github.com/joho/godotenv"
)

// loadDotEnvFiles applies dotenv files in order. Real environment variables
// are never overridden, and earlier files win over later ones, so
// .env.local must be passed before .env.
func loadDotEnvFiles(paths ...string) error {
	for _, name := range paths {
		values, err := godotenv.Read(name)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		for k, v := range values {
			if _, exists := os.LookupEnv(k); exists {
				continue
			}
			if err := os.Setenv(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}
