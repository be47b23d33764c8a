package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The types reflect how the values are used
// in the application: strings for identifiers and secrets, ints for
// durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	PublicBaseURL  string // base URL public microsite links are built from

	Payment PaymentConfig // checkout provider settings
	Mailer  MailerConfig  // mail relay settings
	Storage StorageConfig // media object storage settings
}

// PaymentConfig configures the external checkout provider client.
type PaymentConfig struct {
	BaseURL       string // provider API base URL
	AccessToken   string // bearer token for provider calls
	RefreshToken  string // token used to refresh an expired session
	WebhookSecret string // shared secret expected on webhook calls
	PublishPrice  string // one-time publication price, decimal string
	Currency      string // ISO currency code, e.g. CLP
}

// MailerConfig configures the mail relay the email worker talks to.
type MailerConfig struct {
	BaseURL string // relay base URL
	Token   string // bearer token for relay calls
	From    string // sender address stamped on outgoing mail
}

// StorageConfig configures the S3-compatible object storage used for
// landing-page images and audio.
type StorageConfig struct {
	Endpoint  string // storage endpoint, host[:port]
	Region    string // region, defaults to us-east-1
	Bucket    string // bucket name
	AccessKey string // access key id
	SecretKey string // secret access key
	PublicURL string // base URL uploads are served from
	UseSSL    bool   // https toward the endpoint
}

// Load reads configuration values from environment variables and returns
// a Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. Provider, mailer
// and storage settings are optional so local development can run with
// those integrations disabled.
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
		PublicBaseURL:  getenv("PUBLIC_BASE_URL", "https://invitame.app"),
		Payment: PaymentConfig{
			BaseURL:       getenv("PAYMENT_BASE_URL", "https://api.mercadopago.com"),
			AccessToken:   os.Getenv("PAYMENT_ACCESS_TOKEN"),
			RefreshToken:  os.Getenv("PAYMENT_REFRESH_TOKEN"),
			WebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
			PublishPrice:  getenv("PUBLISH_PRICE", "19990"),
			Currency:      getenv("PUBLISH_CURRENCY", "CLP"),
		},
		Mailer: MailerConfig{
			BaseURL: os.Getenv("MAILER_BASE_URL"),
			Token:   os.Getenv("MAILER_TOKEN"),
			From:    getenv("MAILER_FROM", "no-reply@invitame.app"),
		},
		Storage: StorageConfig{
			Endpoint:  os.Getenv("STORAGE_ENDPOINT"),
			Region:    getenv("STORAGE_REGION", "us-east-1"),
			Bucket:    os.Getenv("STORAGE_BUCKET"),
			AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
			PublicURL: os.Getenv("STORAGE_PUBLIC_URL"),
			UseSSL:    envBool("STORAGE_USE_SSL", true),
		},
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
