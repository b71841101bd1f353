package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBDSN    string
	MediaDir string
	LogFile  string
	BaseURL  string

	StripeKey           string
	StripeWebhookSecret string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:                getenv("PORT", "8080"),
		DBDSN:               getenv("DB_DSN", "logbloga.db"), // sqlite file in project root
		MediaDir:            getenv("MEDIA_DIR", "./web/media"),
		LogFile:             getenv("LOG_FILE", "./logbloga.log"),
		BaseURL:             getenv("BASE_URL", "http://localhost:8080"),
		StripeKey:           os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            587,
		SMTPUser:            os.Getenv("SMTP_USER"),
		SMTPPass:            os.Getenv("SMTP_PASS"),
		MailFrom:            getenv("MAIL_FROM", "orders@logbloga.test"),
	}

	// Never log secrets; the rest helps debugging deployments.
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s BASE_URL=%s stripe=%v smtp=%v",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.BaseURL, cfg.StripeKey != "", cfg.SMTPHost != "")
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
