package config

import (
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"debug"`

	DBURL     string `env:"DB_URL,notEmpty"`
	JWTSecret string `env:"JWT_SECRET,notEmpty"`

	// Trusted browser origins, comma separated. There is no allow-all fallback.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	// Token roles allowed to moderate shared media.
	ModeratorRoles []string `env:"MODERATOR_ROLES" envSeparator:"," envDefault:"user,admin"`

	RedisURL     string `env:"REDIS_URL"`
	RedisChannel string `env:"REDIS_CHANNEL" envDefault:"partypics"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	NormalizeJPEG bool `env:"MEDIA_NORMALIZE_JPEG" envDefault:"false"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

var App Config

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	cfg, err := Parse()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	App = cfg
}

// Parse reads the process environment into a Config.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	cfg.CORSOrigins = cleanList(cfg.CORSOrigins)
	cfg.ModeratorRoles = cleanList(cfg.ModeratorRoles)
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)
	return cfg, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
