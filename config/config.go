package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	aws_pkg "straphub-service/pkg/aws"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Port        string
	Env         string
	ServiceName string

	// Storefront gateway
	StorefrontDomain     string
	StorefrontAPIVersion string
	StorefrontToken      string
	GatewayTimeout       time.Duration
	CheckoutChannel      string

	// Cart persistence
	CartStore      string // "redis" or "dynamodb"
	RedisURL       string
	CartTable      string
	CartTTL        time.Duration
	SessionIdleTTL time.Duration

	// Catalog
	CatalogCacheTTL time.Duration

	// Cart presentation
	FreeShippingThreshold string
	Currency              string
	HandoffDelay          time.Duration

	// Checkout events
	EventSink           string // "kafka", "sns", "sqs" or "none"
	KafkaBrokers        string
	KafkaTopic          string
	CheckoutSNSTopicARN string
	CheckoutQueueURL    string

	// Catalog change events, consumed from Kafka and/or SQS when set
	CatalogTopic    string
	KafkaGroupID    string
	CatalogQueueURL string

	AllowedOrigins []string
	CookieSecure   bool
}

// StorefrontEndpoint is the GraphQL endpoint of the storefront API.
func (c Config) StorefrontEndpoint() string {
	return fmt.Sprintf("https://%s/api/%s/graphql.json", c.StorefrontDomain, c.StorefrontAPIVersion)
}

// Load reads configuration from the environment (and a .env file when
// present), with an optional Secrets Manager override for the storefront
// token.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := Config{
		Port:        getEnv("PORT", "8086"),
		Env:         getEnv("APP_ENV", "development"),
		ServiceName: getEnv("SERVICE_NAME", "straphub-service"),

		StorefrontDomain:     os.Getenv("STOREFRONT_DOMAIN"),
		StorefrontAPIVersion: getEnv("STOREFRONT_API_VERSION", "2025-07"),
		StorefrontToken:      os.Getenv("STOREFRONT_TOKEN"),
		GatewayTimeout:       getDuration("GATEWAY_TIMEOUT", 15*time.Second),
		CheckoutChannel:      getEnv("CHECKOUT_CHANNEL", "online_store"),

		CartStore:      getEnv("CART_STORE", "redis"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		CartTable:      getEnv("CART_TABLE", "straphub-carts"),
		CartTTL:        getDuration("CART_TTL", time.Hour*24*7), // default 7 days
		SessionIdleTTL: getDuration("SESSION_IDLE_TTL", 30*time.Minute),

		CatalogCacheTTL: getDuration("CATALOG_CACHE_TTL", 5*time.Minute),

		FreeShippingThreshold: getEnv("FREE_SHIPPING_THRESHOLD", "25.00"),
		Currency:              getEnv("STORE_CURRENCY", "GBP"),
		HandoffDelay:          getDuration("HANDOFF_DELAY", 1500*time.Millisecond),

		EventSink:           getEnv("EVENT_SINK", "none"),
		KafkaBrokers:        getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "checkout.session_created"),
		CheckoutSNSTopicARN: os.Getenv("CHECKOUT_SNS_TOPIC_ARN"),
		CheckoutQueueURL:    os.Getenv("CHECKOUT_QUEUE_URL"),

		CatalogTopic:    os.Getenv("CATALOG_TOPIC"),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "straphub-service"),
		CatalogQueueURL: os.Getenv("CATALOG_QUEUE_URL"),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		CookieSecure:   getEnv("COOKIE_SECURE", "false") == "true",
	}

	// Override the storefront token from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)
			if m, err := sm.GetSecretMap(context.Background(), "storefront/credentials"); err == nil {
				if v := m["STOREFRONT_TOKEN"]; v != "" {
					cfg.StorefrontToken = v
				}
				if v := m["STOREFRONT_DOMAIN"]; v != "" {
					cfg.StorefrontDomain = v
				}
			} else {
				log.Printf("storefront secret unavailable, keeping env values: %v", err)
			}
		} else {
			log.Printf("AWS config unavailable, keeping env storefront token: %v", err)
		}
	}

	if cfg.StorefrontDomain == "" || cfg.StorefrontToken == "" {
		return cfg, fmt.Errorf("storefront config incomplete: STOREFRONT_DOMAIN and STOREFRONT_TOKEN are required")
	}
	switch cfg.CartStore {
	case "redis", "dynamodb":
	default:
		return cfg, fmt.Errorf("unknown CART_STORE %q", cfg.CartStore)
	}
	switch cfg.EventSink {
	case "kafka", "sns", "sqs", "none":
	default:
		return cfg, fmt.Errorf("unknown EVENT_SINK %q", cfg.EventSink)
	}
	if cfg.EventSink == "sns" && cfg.CheckoutSNSTopicARN == "" {
		return cfg, fmt.Errorf("EVENT_SINK=sns requires CHECKOUT_SNS_TOPIC_ARN")
	}
	if cfg.EventSink == "sqs" && cfg.CheckoutQueueURL == "" {
		return cfg, fmt.Errorf("EVENT_SINK=sqs requires CHECKOUT_QUEUE_URL")
	}
	return cfg, nil
}

// KafkaBrokerList splits KAFKA_BROKERS on commas.
func (c Config) KafkaBrokerList() []string {
	return splitList(c.KafkaBrokers)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getDuration accepts Go durations ("15s") or plain seconds ("15").
func getDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("invalid duration for %s=%q, using %s", key, val, defaultVal)
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(strings.TrimSuffix(part, "/")); p != "" {
			out = append(out, p)
		}
	}
	return out
}
