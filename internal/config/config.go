// Package config loads settings from the environment, with an optional
// .env file for local runs.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Server struct {
	Addr     string `env:"WWA_ADDR" envDefault:":8080"`
	LogLevel string `env:"WWA_LOG_LEVEL" envDefault:"info"`
}

type Client struct {
	BaseURL      string        `env:"WWA_BASE_URL" envDefault:"http://localhost:8080"`
	RoomID       string        `env:"WWA_ROOM" envDefault:"local"`
	SeatCount    int           `env:"WWA_SEATS" envDefault:"12"`
	HumanSeat    int           `env:"WWA_HUMAN_SEAT" envDefault:"1"`
	PollInterval time.Duration `env:"WWA_POLL_INTERVAL" envDefault:"1s"`
	LogLevel     string        `env:"WWA_LOG_LEVEL" envDefault:"info"`
}

func LoadServer() (Server, error) {
	_ = godotenv.Load()
	var c Server
	err := env.Parse(&c)
	return c, err
}

func LoadClient() (Client, error) {
	_ = godotenv.Load()
	var c Client
	err := env.Parse(&c)
	return c, err
}
