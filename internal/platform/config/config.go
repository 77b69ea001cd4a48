package config

import (
	"os"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	// HospitalAdminID and StoreManagerID pin the two privileged identities
	// for the supply workflows. Every other caller is treated as ward staff.
	HospitalAdminID string
	StoreManagerID  string

	EnableOutboxRelay     bool
	EnablePendingReporter bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "nightingale"
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

	adminID := strings.TrimSpace(os.Getenv("HOSPITAL_ADMIN_ID"))
	if adminID == "" {
		adminID = "hospital-admin"
	}
	storeID := strings.TrimSpace(os.Getenv("STORE_MANAGER_ID"))
	if storeID == "" {
		storeID = "store-manager"
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		HospitalAdminID: adminID,
		StoreManagerID:  storeID,

		EnableOutboxRelay:     envBool("ENABLE_OUTBOX_RELAY", true),
		EnablePendingReporter: envBool("ENABLE_PENDING_REPORTER", true),
	}, nil
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
