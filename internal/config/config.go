package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Strings for identifiers and secrets, ints
// for durations, costs and policy windows.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	// Booking policy. Cancelling more than RefundCutoffHours before the
	// class start returns the consumed credit; later cancellations free
	// the slot but keep the credit spent.
	RefundCutoffHours int

	// Reminder windows for the background jobs.
	ExpiryLookaheadDays   int // package expiry reminder lookahead
	ReminderLookaheadHours int // class reminder lookahead
	SweepIntervalMinutes  int // how often the scheduler runs its jobs

	// Payment gateway (hosted checkout).
	GatewayBaseURL   string // checkout API base URL
	GatewaySecretKey string // server-side API key
	CheckoutReturnURL string // where the gateway redirects after payment

	// Transactional email.
	SMTPHost string // SMTP server host
	SMTPPort string // SMTP server port
	SMTPUser string // SMTP username (optional)
	SMTPPass string // SMTP password (optional)
	MailFrom string // From address on outgoing mail

	// Bearer token required on the /v1/cron trigger endpoints.
	CronToken string
}

// Load reads configuration values from environment variables and returns
// a Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. Policy windows
// fall back to the documented defaults when unset.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		RefundCutoffHours:      envInt("BOOKING_REFUND_CUTOFF_HOURS", 24),
		ExpiryLookaheadDays:    envInt("PACKAGE_EXPIRY_LOOKAHEAD_DAYS", 10),
		ReminderLookaheadHours: envInt("CLASS_REMINDER_LOOKAHEAD_HOURS", 24),
		SweepIntervalMinutes:   envInt("JOB_SWEEP_INTERVAL_MIN", 60),

		GatewayBaseURL:    must("PAYMENT_GATEWAY_URL"),
		GatewaySecretKey:  must("PAYMENT_SECRET_KEY"),
		CheckoutReturnURL: envStr("CHECKOUT_RETURN_URL", ""),

		SMTPHost: envStr("SMTP_HOST", ""),
		SMTPPort: envStr("SMTP_PORT", "587"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		MailFrom: envStr("MAIL_FROM", "no-reply@lunafit.local"),

		CronToken: must("CRON_TOKEN"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer. If conversion fails, the application logs a fatal error and
// exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
