package shared

import (
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// LoadEnv loads variables from the given dotenv files into the process environment.
//
// Missing files are skipped; variables already present in the environment win.
func LoadEnv(logger *log.Logger, files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			logger.Warn("failed to load env file", "path", f, "error", err)
			continue
		}
		logger.Debug("env file loaded", "path", f)
	}
}

// ApplyEnv overrides connection settings in config with MFX_* environment variables.
//
//   - MFX_SERVER_URL
//   - MFX_ORGANIZATION_ID
//   - MFX_USERNAME
//   - MFX_PASSWORD
//   - MFX_TOKEN
//   - MFX_CONTENT_DISCONNECTED
func ApplyEnv(config *Config) {
	if v := os.Getenv("MFX_SERVER_URL"); v != "" {
		config.Server.URL = v
	}
	if v := os.Getenv("MFX_ORGANIZATION_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			config.Server.OrganizationID = id
		}
	}
	if v := os.Getenv("MFX_USERNAME"); v != "" {
		config.Server.Username = v
	}
	if v := os.Getenv("MFX_PASSWORD"); v != "" {
		config.Server.Password = v
	}
	if v := os.Getenv("MFX_TOKEN"); v != "" {
		config.Server.Token = v
	}
	if v := os.Getenv("MFX_CONTENT_DISCONNECTED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Content.Disconnected = b
		}
	}
}
