package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config представляет структуру конфигурации для приложения.
type Config struct {
	App struct {
		Port string
		Env  string
	}
	Mongo struct {
		PrimaryURI   string // Основная база (общие данные приложения)
		SecondaryURI string // Вторичная база (авторитетная для биллинга)
		Database     string
	}
	Pagarme struct {
		APIKey        string
		BaseURL       string
		WebhookSecret string
		// Префикс CVV, имитирующий отказ эмитента в песочнице
		DeclineCVVPrefix string
		// BIN-префиксы карт, проходящих валидационную транзакцию
		ValidationBINs []string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Kafka struct {
		Brokers []string
		Topic   string
	}
	Auth struct {
		JWTSecret string
	}
	Storage struct {
		// Каталог для pending-заявок и диагностических логов вебхуков
		DataDir string
	}
	Reconciliation struct {
		// Разрешить fallback "единственный пользователь в базе" при поиске
		AllowSingleUserFallback bool
	}
	Logging struct {
		Level string
	}
}

// Load загружает конфигурацию из .env файла и переменных окружения.
func Load(envPath string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// .env опционален: в контейнере переменные приходят из окружения
		_ = godotenv.Load(envPath)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3001")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_URI_USER_BD", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "myDatabase")
	v.SetDefault("PAGARME_BASE_URL", "https://api.pagar.me/core/v5")
	v.SetDefault("DECLINE_CVV_PREFIX", "6")
	v.SetDefault("VALIDATION_BIN_PREFIXES", "4111,5555,378282")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "subscription_events")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("ALLOW_SINGLE_USER_FALLBACK", false)
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	cfg.App.Port = v.GetString("PORT")
	cfg.App.Env = v.GetString("APP_ENV")
	cfg.Mongo.PrimaryURI = v.GetString("MONGO_URI")
	cfg.Mongo.SecondaryURI = v.GetString("MONGO_URI_USER_BD")
	cfg.Mongo.Database = v.GetString("MONGO_DATABASE")
	cfg.Pagarme.APIKey = v.GetString("PAGARME_API_KEY")
	cfg.Pagarme.BaseURL = v.GetString("PAGARME_BASE_URL")
	cfg.Pagarme.WebhookSecret = v.GetString("PAGARME_WEBHOOK_SECRET")
	cfg.Pagarme.DeclineCVVPrefix = v.GetString("DECLINE_CVV_PREFIX")
	cfg.Pagarme.ValidationBINs = splitList(v.GetString("VALIDATION_BIN_PREFIXES"))
	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Kafka.Brokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.Kafka.Topic = v.GetString("KAFKA_TOPIC")
	cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	cfg.Storage.DataDir = v.GetString("DATA_DIR")
	cfg.Reconciliation.AllowSingleUserFallback = v.GetBool("ALLOW_SINGLE_USER_FALLBACK")
	cfg.Logging.Level = v.GetString("LOG_LEVEL")

	return &cfg, nil
}

// splitList разбивает строку вида "a,b,c" на список, отбрасывая пустые элементы.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
