package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Database *Database
	HTTP     *HTTP
	App      *App
	AMQP     *AMQP
	Payments *Payments
}

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

type App struct {
	LogLevel string `env:"LOG_LEVEL"`
	Mode     string
}

type Database struct {
	DSN string `env:"DATABASE_URI"`
}

type HTTP struct {
	HostString string `env:"RUN_ADDRESS"`
	// PublicBaseURL is what provider callbacks dial back to.
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

type AMQP struct {
	URL string `env:"AMQP_URL"`
}

// Provider credentials; merchant id or secret missing switches the adapter
// into mock mode.
type Provider struct {
	MerchantID string `env:"MERCHANT_ID"`
	SecretKey  string `env:"SECRET_KEY"`
	APIURL     string `env:"API_URL"`
}

type Payments struct {
	TTL    time.Duration `env:"PAYMENT_TTL" envDefault:"15m"`
	MBank  Provider
	Elsom  Provider
	ODengi Provider
}

func NewConfig() (*Config, error) {
	var db Database
	var http HTTP
	var app App
	var amqp AMQP
	var payments Payments

	flag.StringVar(&db.DSN, "d", "", "Database string")
	flag.StringVar(&http.HostString, "a", `localhost:8080`, "HTTP server endpoint")
	flag.StringVar(&http.PublicBaseURL, "b", `http://localhost:8080`, "Public base URL for provider callbacks")
	flag.StringVar(&app.LogLevel, "l", `error`, "Log level")
	flag.StringVar(&app.Mode, "m", `DEV`, "PROD / DEV")
	flag.Parse()

	err := env.Parse(&db)
	if err != nil {
		return nil, fmt.Errorf("error parsing env database config: %w", err)
	}
	err = env.Parse(&http)
	if err != nil {
		return nil, fmt.Errorf("error parsing http config: %w", err)
	}
	err = env.Parse(&app)
	if err != nil {
		return nil, fmt.Errorf("error parsing app config: %w", err)
	}
	err = env.Parse(&amqp)
	if err != nil {
		return nil, fmt.Errorf("error parsing amqp config: %w", err)
	}
	err = env.Parse(&payments)
	if err != nil {
		return nil, fmt.Errorf("error parsing payments config: %w", err)
	}
	err = env.Parse(&payments.MBank, env.Options{Prefix: "MBANK_"})
	if err != nil {
		return nil, fmt.Errorf("error parsing mbank config: %w", err)
	}
	err = env.Parse(&payments.Elsom, env.Options{Prefix: "ELSOM_"})
	if err != nil {
		return nil, fmt.Errorf("error parsing elsom config: %w", err)
	}
	err = env.Parse(&payments.ODengi, env.Options{Prefix: "ODENGI_"})
	if err != nil {
		return nil, fmt.Errorf("error parsing odengi config: %w", err)
	}

	config := Config{
		Database: &db,
		HTTP:     &http,
		App:      &app,
		AMQP:     &amqp,
		Payments: &payments,
	}

	return &config, nil
}
