package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	NATS     NATSConfig // change feed ข้าม instance (ว่าง = in-process)
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	LLM      LLMConfig
	Realtime RealtimeConfig
}

type AppConfig struct {
	Name           string
	Port           string
	Env            string
	TimeZone       string // default location สำหรับคำนวณ today/future
	AllowedOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	LogLevel string // silent, error, warn, info
}

// NATSConfig configuration สำหรับ NATS Pub/Sub
type NATSConfig struct {
	URL           string // nats://localhost:4222
	SubjectPrefix string // tasks.changes
}

// RedisConfig สำหรับ cache รายการ task ของ user
type RedisConfig struct {
	URL      string // redis://localhost:6379
	Password string
	DB       int
	TaskTTL  time.Duration
}

// JWTConfig - secret ของ auth provider ที่ใช้เซ็น access token
type JWTConfig struct {
	Secret   string
	Audience string
}

type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     string // stdout, file, both
	FilePath   string // logs/app.log
	MaxSize    int    // MB
	MaxBackups int    // จำนวน backup files
	MaxAge     int    // วัน
	Compress   bool   // บีบอัด backup
}

// LLMConfig - ค่า default ของ AI proxy (body ของ request override ได้)
type LLMConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	FallbackBaseURL string
	Temperature     float64
	Timeout         time.Duration
	HistoryLimit    int
	RateLimit       int // request ต่อนาทีต่อ IP ของ /api/ai (0 = ไม่จำกัด)
}

type RealtimeConfig struct {
	RolloverCron string // cron ที่แจ้ง client ให้คำนวณ view ใหม่
}

const DefaultFallbackBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

func LoadConfig() (*Config, error) {
	// ไม่ error ถ้าไม่มี .env file (ใช้ environment variables แทน)
	_ = godotenv.Load()

	logMaxSize, _ := strconv.Atoi(getEnv("LOG_MAX_SIZE", "100"))
	logMaxBackups, _ := strconv.Atoi(getEnv("LOG_MAX_BACKUPS", "5"))
	logMaxAge, _ := strconv.Atoi(getEnv("LOG_MAX_AGE", "30"))
	logCompress := getEnv("LOG_COMPRESS", "true") == "true"

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisTTL := getDuration("REDIS_TASK_TTL", 5*time.Minute)

	temperature, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.3"), 64)
	if err != nil {
		temperature = 0.3
	}
	historyLimit, _ := strconv.Atoi(getEnv("LLM_HISTORY_LIMIT", "8"))
	rateLimit, _ := strconv.Atoi(getEnv("LLM_RATE_LIMIT", "20"))

	config := &Config{
		App: AppConfig{
			Name:           getEnv("APP_NAME", "Bullet AI"),
			Port:           getEnv("APP_PORT", "8080"),
			Env:            getEnv("APP_ENV", "development"),
			TimeZone:       getEnv("APP_TIMEZONE", "UTC"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "bullet_ai"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			LogLevel: getEnv("DB_LOG_LEVEL", "warn"),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "tasks.changes"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			TaskTTL:  redisTTL,
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			Audience: getEnv("JWT_AUDIENCE", "authenticated"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			FilePath:   getEnv("LOG_FILE_PATH", "logs/app.log"),
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAge,
			Compress:   logCompress,
		},
		LLM: LLMConfig{
			// ชื่อ env รุ่นเก่า (OPENAI_*, ARK_*) ยังใช้ได้
			APIKey:          firstEnv("LLM_API_KEY", "OPENAI_API_KEY", "ARK_API_KEY"),
			Model:           firstEnv("LLM_MODEL", "OPENAI_MODEL", "ARK_MODEL"),
			BaseURL:         firstEnv("LLM_BASE_URL", "OPENAI_BASE_URL"),
			FallbackBaseURL: getEnv("LLM_FALLBACK_BASE_URL", DefaultFallbackBaseURL),
			Temperature:     temperature,
			Timeout:         getDuration("LLM_TIMEOUT", 60*time.Second),
			HistoryLimit:    historyLimit,
			RateLimit:       rateLimit,
		},
		Realtime: RealtimeConfig{
			RolloverCron: getEnv("ROLLOVER_CRON", "0 0 * * *"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv คืนค่าแรกที่ไม่ว่างตามลำดับ key
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := getEnv(key, ""); value != "" {
			return value
		}
	}
	return ""
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}

// Location คืน time.Location ของ APP_TIMEZONE (fallback UTC)
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
