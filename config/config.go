package config

import (
	"github.com/kelseyhightower/envconfig"
)

// App is read once at process start; everything else takes values from here.
type App struct {
	SharedSecret string `envconfig:"SHARED_SECRET" required:"true"`
	PostgresURL  string `envconfig:"POSTGRES_URL" required:"true"`
	// RedisAddr enables post-commit event publishing; empty disables it.
	RedisAddr string `envconfig:"REDIS_ADDR"`
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
