package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	PaystackSecretKey string
	StripeSecretKey   string
	StripeSigningKey  string

	PlatformFeePercent      float64
	DonationRetryCap        int
	ReconcileStaleAfter     string
	EnableOutboxRelay       bool
	EnablePendingReconciler bool
}

func Load() (Config, error) {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "chainraise"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		PaystackSecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),
		StripeSigningKey:  os.Getenv("STRIPE_WEBHOOK_SIGNING_KEY"),

		PlatformFeePercent:      envFloat("PLATFORM_FEE_PERCENT", 5.0),
		DonationRetryCap:        envInt("DONATION_RETRY_CAP", 3),
		ReconcileStaleAfter:     envString("RECONCILE_STALE_AFTER", "15m"),
		EnableOutboxRelay:       envBool("ENABLE_OUTBOX_RELAY", true),
		EnablePendingReconciler: envBool("ENABLE_PENDING_RECONCILER", true),
	}, nil
}

func envString(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}
