package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	AppConfig Config
	envLoaded bool
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type Config struct {
	Environment        string      `json:"environment"`
	ServerPort         string      `json:"server_port"`
	SentryDSN          string      `json:"-"`
	RateLimitPerMinute int         `json:"rate_limit_per_minute"`
	Redis              RedisConfig `json:"redis"`
	WhoisEnabled       bool        `json:"whois_enabled"`

	// Engine tunables, passed through to the verifier.
	HeloDomain          string        `json:"helo_domain"`
	MailFrom            string        `json:"mail_from"`
	SMTPPort            string        `json:"smtp_port"`
	DNSServers          []string      `json:"dns_servers"`
	DNSTimeout          time.Duration `json:"dns_timeout"`
	ConnectTimeout      time.Duration `json:"connect_timeout"`
	ReplyTimeout        time.Duration `json:"reply_timeout"`
	DialogueTimeout     time.Duration `json:"dialogue_timeout"`
	TLSHandshakeTimeout time.Duration `json:"tls_handshake_timeout"`
	FallbackPortTimeout time.Duration `json:"fallback_port_timeout"`
	CatchallProbes      int           `json:"catchall_probes"`
	CatchallProbeDelay  time.Duration `json:"catchall_probe_delay"`
	MaxMXHosts          int           `json:"max_mx_hosts"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

func LoadConfig() error {
	AppConfig = Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		ServerPort:         getEnv("SERVER_PORT", "5000"),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 30),
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		WhoisEnabled: getEnvAsBool("WHOIS_ENABLED", false),

		HeloDomain:          getEnv("HELO_DOMAIN", "verifier.local"),
		MailFrom:            getEnv("MAIL_FROM", "postmaster@verifier.local"),
		SMTPPort:            getEnv("SMTP_PROBE_PORT", "25"),
		DNSServers:          getEnvAsList("DNS_SERVERS", nil),
		DNSTimeout:          getEnvAsDuration("DNS_TIMEOUT", 5*time.Second),
		ConnectTimeout:      getEnvAsDuration("SMTP_CONNECT_TIMEOUT", 10*time.Second),
		ReplyTimeout:        getEnvAsDuration("SMTP_REPLY_TIMEOUT", 5*time.Second),
		DialogueTimeout:     getEnvAsDuration("SMTP_DIALOGUE_TIMEOUT", 30*time.Second),
		TLSHandshakeTimeout: getEnvAsDuration("TLS_HANDSHAKE_TIMEOUT", 5*time.Second),
		FallbackPortTimeout: getEnvAsDuration("FALLBACK_PORT_TIMEOUT", 3*time.Second),
		CatchallProbes:      getEnvAsInt("CATCHALL_PROBES", 3),
		CatchallProbeDelay:  getEnvAsDuration("CATCHALL_PROBE_DELAY", 400*time.Millisecond),
		MaxMXHosts:          getEnvAsInt("MAX_MX_HOSTS", 2),
	}

	// Validate required configurations
	if !strings.Contains(AppConfig.MailFrom, "@") {
		return fmt.Errorf("MAIL_FROM must be a full email address")
	}
	if AppConfig.Environment == "production" {
		if AppConfig.HeloDomain == "verifier.local" {
			return fmt.Errorf("HELO_DOMAIN must be set to a real hostname in production")
		}
	}

	logConfig()
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		log.Printf("⚠️ Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("HELO Domain: %s", AppConfig.HeloDomain)
	log.Printf("Rate Limit: %d/minute (redis: %t)", AppConfig.RateLimitPerMinute, AppConfig.Redis.Enabled)
	log.Printf("WHOIS Enrichment: %t", AppConfig.WhoisEnabled)
}
