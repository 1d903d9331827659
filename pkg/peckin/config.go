package peckin

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config identifies the Peck-In project a client talks to. It is read once
// at process start.
type Config struct {
	APIKey            string
	AuthDomain        string
	ProjectID         string
	StorageBucket     string
	MessagingSenderID string
	AppID             string
	MeasurementID     string // optional
}

var requiredKeys = []string{
	"API_KEY",
	"AUTH_DOMAIN",
	"PROJECT_ID",
	"STORAGE_BUCKET",
	"MESSAGING_SENDER_ID",
	"APP_ID",
}

// LoadConfig reads PECKIN_* variables from the environment and an optional
// .env file. All values except PECKIN_MEASUREMENT_ID are required; callers
// treat an error as fatal.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetEnvPrefix("PECKIN")
	v.AutomaticEnv()

	var missing []string
	for _, k := range requiredKeys {
		if strings.TrimSpace(v.GetString(k)) == "" {
			missing = append(missing, "PECKIN_"+k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return &Config{
		APIKey:            v.GetString("API_KEY"),
		AuthDomain:        v.GetString("AUTH_DOMAIN"),
		ProjectID:         v.GetString("PROJECT_ID"),
		StorageBucket:     v.GetString("STORAGE_BUCKET"),
		MessagingSenderID: v.GetString("MESSAGING_SENDER_ID"),
		AppID:             v.GetString("APP_ID"),
		MeasurementID:     v.GetString("MEASUREMENT_ID"),
	}, nil
}

// BaseURL is the backend root derived from AuthDomain. A bare host is
// assumed to speak HTTPS.
func (c *Config) BaseURL() string {
	d := strings.TrimRight(c.AuthDomain, "/")
	if strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://") {
		return d
	}
	return "https://" + d
}
