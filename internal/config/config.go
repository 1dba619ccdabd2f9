// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServiceName string
	Env         string
	LogLevel    string
	LogFile     string

	// Port is the HTTP listen port.
	Port string

	CartHost       string
	UserHost       string
	PaymentGateway string
	// PublishDelay is an artificial latency injected before every broker publish.
	PublishDelay time.Duration
	// HTTPTimeout bounds every outbound collaborator call.
	HTTPTimeout time.Duration

	AMQPHost     string
	AMQPUser     string
	AMQPPassword string
	AMQPVHost    string

	OTLPEndpoint string
}

// Load reads the configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		ServiceName:    getenvDefault("SERVICE_NAME", "payment"),
		Env:            getenvDefault("ENV", "dev"),
		LogLevel:       getenvDefault("LOG_LEVEL", "info"),
		LogFile:        os.Getenv("LOG_FILE"),
		Port:           getenvDefault("SHOP_PAYMENT_PORT", "8080"),
		CartHost:       getenvDefault("CART_HOST", "cart"),
		UserHost:       getenvDefault("USER_HOST", "user"),
		PaymentGateway: getenvDefault("PAYMENT_GATEWAY", "https://paypal.com/"),
		AMQPHost:       getenvDefault("AMQP_HOST", "rabbitmq"),
		AMQPUser:       getenvDefault("AMQP_USER", "guest"),
		AMQPPassword:   getenvDefault("AMQP_PASS", "guest"),
		AMQPVHost:      getenvDefault("AMQP_VHOST", "/"),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("config: SHOP_PAYMENT_PORT: %w", err)
	}

	delay, err := millis("PAYMENT_DELAY_MS", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.PublishDelay = delay

	timeout, err := millis("HTTP_CLIENT_TIMEOUT_MS", 5000)
	if err != nil {
		return Config{}, err
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("config: HTTP_CLIENT_TIMEOUT_MS must be positive")
	}
	cfg.HTTPTimeout = timeout

	return cfg, nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// UserURL is the base URL of the user service.
func (c Config) UserURL() string {
	return serviceURL(c.UserHost)
}

// CartURL is the base URL of the cart service.
func (c Config) CartURL() string {
	return serviceURL(c.CartHost)
}

// AMQPURL builds the broker connection URL.
func (c Config) AMQPURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.AMQPUser, c.AMQPPassword),
		Host:   net.JoinHostPort(c.AMQPHost, "5672"),
		Path:   "/",
	}
	if c.AMQPVHost != "/" {
		u.Path = "/" + c.AMQPVHost
		u.RawPath = "/" + url.PathEscape(c.AMQPVHost)
	}
	return u.String()
}

// serviceURL defaults the collaborator port to 8080 when the host has none.
func serviceURL(host string) string {
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "8080")
	}
	return "http://" + host
}

func millis(key string, def int) (time.Duration, error) {
	raw := getenvDefault(key, strconv.Itoa(def))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return time.Duration(n) * time.Millisecond, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
