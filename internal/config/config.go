package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret shared with the identity provider for HS256 tokens
	JWTIssuer string // expected "iss" claim; empty skips the check
	LogLevel  string // zap level name

	BookingMaxAttempts  int           // attempts per booking request on transient conflicts
	BookingRetryBackoff time.Duration // base backoff between attempts
	BookingTxTimeout    time.Duration // deadline for a single booking transaction

	RabbitURL      string // AMQP URL; empty disables event publishing
	EventsConsumer bool   // run the audit consumer inside the server process
}

// LoadDotEnv reads a .env file from the working directory into the process
// environment.  Variables that are already set win.  A missing file is fine.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: ignoring .env: %v", err)
	}
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		JWTSecret: must("JWT_SECRET"),
		JWTIssuer: os.Getenv("JWT_ISSUER"),
		LogLevel:  envStr("LOG_LEVEL", "info"),

		BookingMaxAttempts:  envInt("BOOKING_MAX_ATTEMPTS", 3),
		BookingRetryBackoff: envDur("BOOKING_RETRY_BACKOFF", 50*time.Millisecond),
		BookingTxTimeout:    envDur("BOOKING_TX_TIMEOUT", 5*time.Second),

		RabbitURL:      rabbitURL(),
		EventsConsumer: envBool("EVENTS_CONSUMER", false),
	}.withDB(LoadDB())
}

// DBConfig is the subset needed to open the database.  cmd/migrate only
// needs this part.
type DBConfig struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

// LoadDB reads the database connection settings.
func LoadDB() DBConfig {
	return DBConfig{
		User: must("DB_USER"),
		Pass: os.Getenv("DB_PASS"), // empty allowed
		Host: must("DB_HOST"),
		Port: must("DB_PORT"),
		Name: must("DB_NAME"),
	}
}

// DB returns the connection settings embedded in c.
func (c Config) DB() DBConfig {
	return DBConfig{User: c.DBUser, Pass: c.DBPass, Host: c.DBHost, Port: c.DBPort, Name: c.DBName}
}

func (c Config) withDB(db DBConfig) Config {
	c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName = db.User, db.Pass, db.Host, db.Port, db.Name
	return c
}

func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
