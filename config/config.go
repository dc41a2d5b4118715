package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	RedisPassword string
	RedisDB       int
	JWTSecret     string

	MaxDevicesPerUser     int // 单用户最大同时在线设备数
	PresenceTTLSeconds    int // 在线状态 key 的有效期（秒）
	EnablePresence        bool
	EnableTypingIndicator bool
}

func Load() *Config {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	maxDevices, _ := strconv.Atoi(getEnv("MAX_DEVICES_PER_USER", "5"))
	presenceTTL, _ := strconv.Atoi(getEnv("PRESENCE_TTL_SECONDS", "60"))

	return &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		JWTSecret:     os.Getenv("JWT_SECRET"),

		MaxDevicesPerUser:     maxDevices,
		PresenceTTLSeconds:    presenceTTL,
		EnablePresence:        getEnv("ENABLE_PRESENCE", "true") == "true",
		EnableTypingIndicator: getEnv("ENABLE_TYPING_INDICATOR", "true") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
