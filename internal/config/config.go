package config

import (
    "fmt"
    "os"
)

// Config holds environment-based settings
type Config struct {
    DatabaseURL    string
    MigrationsPath string
    JWTSecret      string
    ServerAddress  string

    // RedisAddress and MQTTBrokerURL are optional; the scheduler runs
    // without the state cache or the MQTT publisher when they are empty.
    RedisAddress  string
    RedisUsername string
    RedisPassword string
    MQTTBrokerURL string
    MQTTClientID  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
    dbURL := os.Getenv("DATABASE_URL")
    if dbURL == "" {
        return nil, fmt.Errorf("DATABASE_URL is required")
    }
    jwt := os.Getenv("JWT_SECRET")
    if jwt == "" {
        return nil, fmt.Errorf("JWT_SECRET is required")
    }
    addr := os.Getenv("SERVER_ADDRESS")
    if addr == "" {
        addr = ":8080"
    }
    migrations := os.Getenv("MIGRATIONS_PATH")
    if migrations == "" {
        migrations = "./migrations"
    }
    clientID := os.Getenv("MQTT_CLIENT_ID")
    if clientID == "" {
        clientID = "voltair-server"
    }
    return &Config{
        DatabaseURL:    dbURL,
        MigrationsPath: migrations,
        JWTSecret:      jwt,
        ServerAddress:  addr,
        RedisAddress:   os.Getenv("REDIS_ADDRESS"),
        RedisUsername:  os.Getenv("REDIS_USERNAME"),
        RedisPassword:  os.Getenv("REDIS_PASSWORD"),
        MQTTBrokerURL:  os.Getenv("MQTT_BROKER_URL"),
        MQTTClientID:   clientID,
    }, nil
}
