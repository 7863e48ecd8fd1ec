package config

import (
	"strings"

	"catalogd/internal/messaging"

	"github.com/spf13/viper"
)

type Configuration struct {
	Port        int64            `mapstructure:"port"`
	DatabaseURL string           `mapstructure:"database_url"`
	Redis       RedisOptions     `mapstructure:"redis"`
	Storage     StorageOptions   `mapstructure:"storage"`
	RabbitMQ    messaging.Config `mapstructure:"rabbitmq"`

	// Inventory rows at or below this quantity show up in the periodic
	// low-stock scan.
	LowStockThreshold int `mapstructure:"low_stock_threshold"`
}

type RedisOptions struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageOptions selects and wires the object storage backend. Cloud picks
// managed S3; otherwise the locally hosted MinIO-compatible endpoint is used.
// The choice is made once at startup and never mixed at runtime.
type StorageOptions struct {
	Cloud     bool   `mapstructure:"cloud"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	PublicURL string `mapstructure:"public_url"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

func setDefaults() {
	viper.SetDefault("port", 8080)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("storage.cloud", false)
	viper.SetDefault("storage.bucket", "catalog-images")
	viper.SetDefault("storage.endpoint", "localhost:9000")
	viper.SetDefault("storage.public_url", "http://localhost:9000")
	viper.SetDefault("storage.region", "us-east-1")
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.exchange", "inventory_update")
	viper.SetDefault("rabbitmq.queue", "inventory_update")
	viper.SetDefault("rabbitmq.routing_key", "order.placed")
	viper.SetDefault("rabbitmq.dlx", "inventory_update_dlx")
	viper.SetDefault("rabbitmq.dlq", "inventory_update_dlq")
	viper.SetDefault("low_stock_threshold", 5)
}

// Load reads configuration from environment variables; nested keys map with
// underscores (e.g. STORAGE_CLOUD, RABBITMQ_HOST).
func Load() (*Configuration, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults()

	// AutomaticEnv alone does not populate Unmarshal; bind each known key.
	for _, key := range []string{
		"port", "database_url",
		"redis.addr", "redis.password", "redis.db",
		"storage.cloud", "storage.bucket", "storage.endpoint", "storage.public_url",
		"storage.access_key", "storage.secret_key", "storage.region", "storage.use_ssl",
		"rabbitmq.host", "rabbitmq.port", "rabbitmq.username", "rabbitmq.password",
		"rabbitmq.exchange", "rabbitmq.queue", "rabbitmq.routing_key",
		"rabbitmq.dlx", "rabbitmq.dlq",
		"low_stock_threshold",
	} {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var configuration Configuration
	if err := viper.Unmarshal(&configuration); err != nil {
		return nil, err
	}
	return &configuration, nil
}
