package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Plan is one purchasable subscription tier.
type Plan struct {
	PriceMinor int64         `validate:"gt=0"`
	Duration   time.Duration `validate:"gt=0"`
}

type Config struct {
	BotToken string `validate:"required"`
	GroupID  int64  `validate:"required"`

	PaystackSecretKey      string `validate:"required"`
	FlutterwaveSecretKey   string `validate:"required"`
	FlutterwaveWebhookHash string `validate:"required"`

	WebhookAddr   string        `validate:"required"`
	SweepInterval time.Duration `validate:"gt=0"`
	InviteTTL     time.Duration `validate:"gt=0"`

	Currency string          `validate:"required,len=3"`
	Plans    map[string]Plan `validate:"required,min=1,dive"`
}

// Load reads config.env (if present) and the process environment into a
// validated Config. The plan table is fixed at startup; there is no runtime
// plan registration.
func Load() (*Config, error) {
	_ = godotenv.Load("config.env")

	cfg := &Config{
		BotToken:               strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		GroupID:                envInt64("TELEGRAM_GROUP_ID", 0),
		PaystackSecretKey:      strings.TrimSpace(os.Getenv("PAYSTACK_SECRET_KEY")),
		FlutterwaveSecretKey:   strings.TrimSpace(os.Getenv("FLUTTERWAVE_SECRET_KEY")),
		FlutterwaveWebhookHash: strings.TrimSpace(os.Getenv("FLUTTERWAVE_WEBHOOK_HASH")),
		WebhookAddr:            envString("WEBHOOK_ADDR", ":4000"),
		SweepInterval:          envDuration("SWEEP_INTERVAL", 30*time.Second),
		InviteTTL:              envDuration("INVITE_TTL", 4*time.Hour),
		Currency:               envString("CURRENCY", "NGN"),
		Plans:                  DefaultPlans(),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultPlans mirrors the tiers sold in the group: short, timed access
// windows priced in minor currency units (kobo for NGN).
func DefaultPlans() map[string]Plan {
	return map[string]Plan{
		"15 Minutes": {PriceMinor: 15000, Duration: 15 * time.Minute},
		"30 Minutes": {PriceMinor: 25000, Duration: 30 * time.Minute},
		"1 Hour":     {PriceMinor: 95000, Duration: time.Hour},
	}
}

// PlanOrder returns plan names in menu order. Map iteration order would
// shuffle the keyboard between messages.
func PlanOrder() []string {
	return []string{"15 Minutes", "30 Minutes", "1 Hour"}
}

func (c *Config) Plan(name string) (Plan, bool) {
	p, ok := c.Plans[name]
	return p, ok
}

func envString(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func envInt64(name string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDuration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
