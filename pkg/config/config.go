package config

import (
	"time"
)

type DB struct {
	Url string `envconfig:"URL"`
}

// Jwt verifies bearer tokens issued by Clerk. Auth is off when Key is empty.
type Jwt struct {
	Key       string `envconfig:"KEY"`
	Algorithm string `envconfig:"ALGORITHM" default:"RS256"`
	Issuer    string `envconfig:"ISSUER"`
}

type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:""`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"stealthmoney:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
	StatusTTL    time.Duration `envconfig:"STATUS_TTL" default:"1m"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Payout struct {
	Provider          string        `envconfig:"PROVIDER" default:"simulated"`
	SupportedCurrency string        `envconfig:"SUPPORTED_CURRENCY" default:"EUR"`
	SettleDelay       time.Duration `envconfig:"SETTLE_DELAY" default:"5s"`
}

type Retry struct {
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	BaseDelay   time.Duration `envconfig:"BASE_DELAY" default:"1s"`
	MaxDelay    time.Duration `envconfig:"MAX_DELAY" default:"30s"`
}

//revive:disable
type Circle struct {
	ApiKey  string        `envconfig:"API_KEY"`
	BaseURL string        `envconfig:"BASE_URL" default:"https://api-sandbox.circle.com"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

type Stripe struct {
	ApiKey        string `envconfig:"API_KEY"`
	SigningSecret string `envconfig:"SIGNING_SECRET"`
	// PayoutDestination is the external account payouts are sent to.
	// Empty means the default account of the balance.
	PayoutDestination string `envconfig:"PAYOUT_DESTINATION"`
}

//revive:enable

type EventBus struct {
	Driver            string `envconfig:"DRIVER" default:"memory"`
	KafkaBrokers      string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopicPrefix  string `envconfig:"KAFKA_TOPIC_PREFIX" default:"stealthmoney.events"`
	KafkaGroupID      string `envconfig:"KAFKA_GROUP_ID" default:"stealthmoney"`
	KafkaSASLUsername string `envconfig:"KAFKA_SASL_USERNAME"`
	KafkaSASLPassword string `envconfig:"KAFKA_SASL_PASSWORD"`
	KafkaTLS          bool   `envconfig:"KAFKA_TLS" default:"false"`
	RedisStreamPrefix string `envconfig:"REDIS_STREAM_PREFIX" default:"stealthmoney"`
	RedisGroup        string `envconfig:"REDIS_GROUP" default:"stealthmoney"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[stealthmoney]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Auth      *Auth      `envconfig:"AUTH"`
	Redis     *Redis     `envconfig:"REDIS"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	Payout    *Payout    `envconfig:"PAYOUT"`
	Retry     *Retry     `envconfig:"RETRY"`
	Circle    *Circle    `envconfig:"CIRCLE"`
	Stripe    *Stripe    `envconfig:"STRIPE"`
	EventBus  *EventBus  `envconfig:"EVENTBUS"`
}
