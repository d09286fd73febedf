package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode   `env:"MODE" envDefault:"offline"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	// UploadArchiveDir keeps accepted marks workbooks; empty disables it.
	UploadArchiveDir string `env:"UPLOAD_ARCHIVE_DIR"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"` // json|console

	RollbarToken string `env:"ROLLBAR_TOKEN"`
	RollbarEnv   string `env:"ROLLBAR_ENV" envDefault:"development"`

	CORSOriginsOnline  string `env:"CORS_ORIGINS_ONLINE" envDefault:"https://cie.mindengage.ai"`
	CORSOriginsOffline string `env:"CORS_ORIGINS_OFFLINE" envDefault:"http://localhost:3000,http://localhost:5173"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// a missing .env is normal outside local dev
		_ = godotenv.Load(f)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	switch cfg.Mode {
	case ModeOffline, ModeOnline:
	default:
		return Config{}, errors.Errorf("invalid MODE %q", cfg.Mode)
	}
	return cfg, nil
}

// CORSOrigins returns the allowed origins for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return splitCSV(c.CORSOriginsOnline)
	}
	return splitCSV(c.CORSOriginsOffline)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
