package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	FrontendURL       string `mapstructure:"FRONTEND_URL"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`

	// Stripe configuration.
	StripeKey           string `mapstructure:"STRIPE_API_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripeCurrency      string `mapstructure:"STRIPE_CURRENCY"`
	StripeSuccessURL    string `mapstructure:"STRIPE_SUCCESS_URL"`
	StripeCancelURL     string `mapstructure:"STRIPE_CANCEL_URL"`

	// Delivery providers.
	SendGridAPIKey   string `mapstructure:"SENDGRID_API_KEY"`
	SendGridFrom     string `mapstructure:"SENDGRID_FROM_EMAIL"`
	SendGridFromName string `mapstructure:"SENDGRID_FROM_NAME"`
	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `mapstructure:"TWILIO_FROM_NUMBER"`

	// Notification scheduler.
	EmailEnabled       bool `mapstructure:"NOTIFICATION_EMAIL_ENABLED"`
	SMSEnabled         bool `mapstructure:"NOTIFICATION_SMS_ENABLED"`
	SweepIntervalSecs  int  `mapstructure:"NOTIFICATION_SWEEP_INTERVAL_SECS"`
	MaxDeliveryRetries int  `mapstructure:"NOTIFICATION_MAX_RETRIES"`
	RetryBackoffMins   int  `mapstructure:"NOTIFICATION_RETRY_BACKOFF_MINS"`

	// Booking policy.
	CancellationNoticeHours int `mapstructure:"CANCELLATION_NOTICE_HOURS"`
	ReminderLeadHours       int `mapstructure:"REMINDER_LEAD_HOURS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("FRONTEND_URL", "http://localhost:5173")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "groundandgrow")
	viper.SetDefault("STRIPE_CURRENCY", "aud")
	viper.SetDefault("STRIPE_SUCCESS_URL", "http://localhost:5173/booking/success")
	viper.SetDefault("STRIPE_CANCEL_URL", "http://localhost:5173/booking/cancelled")
	viper.SetDefault("SENDGRID_FROM_NAME", "Ground & Grow Psychology")
	viper.SetDefault("NOTIFICATION_EMAIL_ENABLED", true)
	viper.SetDefault("NOTIFICATION_SMS_ENABLED", false)
	viper.SetDefault("NOTIFICATION_SWEEP_INTERVAL_SECS", 60)
	viper.SetDefault("NOTIFICATION_MAX_RETRIES", 3)
	viper.SetDefault("NOTIFICATION_RETRY_BACKOFF_MINS", 5)
	viper.SetDefault("CANCELLATION_NOTICE_HOURS", 24)
	viper.SetDefault("REMINDER_LEAD_HOURS", 24)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
