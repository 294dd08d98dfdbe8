package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override file configuration.
const (
	EnvTMDBToken          = "TMDB_ACCESS_TOKEN"
	EnvGoogleClientID     = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
	EnvDatabaseURL        = "DATABASE_URL"
	EnvMongoURI           = "MONGO_URI"
	EnvStoreDriver        = "CINEMATCH_STORE"
)

// LoadEnv loads envFile into the process environment (a missing file is not an error)
// and then copies any set override variables into c.
func LoadEnv(c *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	ApplyEnv(c)
	return nil
}

// ApplyEnv overrides secrets and backend selection from the environment.
func ApplyEnv(c *Config) {
	setFromEnv(&c.Credentials.TMDB.AccessToken, EnvTMDBToken)
	setFromEnv(&c.Credentials.Google.ClientID, EnvGoogleClientID)
	setFromEnv(&c.Credentials.Google.ClientSecret, EnvGoogleClientSecret)
	setFromEnv(&c.Store.PostgresURL, EnvDatabaseURL)
	setFromEnv(&c.Store.MongoURI, EnvMongoURI)
	setFromEnv(&c.Store.Driver, EnvStoreDriver)
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
