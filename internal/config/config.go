package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env      Env
	Minio    MinioConfig
	Storage  StorageConfig
	Upload   UploadConfig
	GC       GCConfig
	Auth     AuthConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Database DatabaseConfig
	Server   ServerConfig
}

type Env struct {
	Env string `envconfig:"ENV" default:"DEV"`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"localhost"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

// StorageBackend selects the blob store implementation
type StorageBackend string

const (
	StorageBackendMinio      StorageBackend = "minio"
	StorageBackendFilesystem StorageBackend = "fs"
)

type StorageConfig struct {
	Backend StorageBackend `envconfig:"STORAGE_BACKEND" default:"minio" validate:"oneof=minio fs"`
	FSRoot  string         `envconfig:"STORAGE_FS_ROOT" default:"./data"`
}

type MinioConfig struct {
	Endpoint                  string        `envconfig:"MINIO_ENDPOINT"`
	BucketName                string        `envconfig:"MINIO_BUCKET_NAME" default:"rooms"`
	AccessKey                 string        `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey                 string        `envconfig:"MINIO_SECRET_KEY"`
	DownloadSignedURLDuration time.Duration `envconfig:"MINIO_DOWNLOAD_SIGNED_URL_DURATION" default:"15m"`
	UseSSL                    bool          `envconfig:"MINIO_USE_SSL" default:"false"`
}

type UploadConfig struct {
	ReservationTTL     time.Duration `envconfig:"UPLOAD_RESERVATION_TTL" default:"30m" validate:"gt=0"`
	MaxChunkSize       int64         `envconfig:"UPLOAD_MAX_CHUNK_SIZE" default:"10485760" validate:"gt=0"` // 10MB
	MaxManifestEntries int           `envconfig:"UPLOAD_MAX_MANIFEST_ENTRIES" default:"100" validate:"gt=0"`
	CleanupEvery       time.Duration `envconfig:"UPLOAD_CLEANUP_EVERY" default:"5m" validate:"gt=0"`
	CleanupBatchSize   int           `envconfig:"UPLOAD_CLEANUP_BATCH_SIZE" default:"500" validate:"gt=0"`
}

type GCConfig struct {
	Every       time.Duration `envconfig:"GC_EVERY" default:"15m" validate:"gt=0"`
	BatchSize   int           `envconfig:"GC_BATCH_SIZE" default:"50" validate:"gt=0"`
	GracePeriod time.Duration `envconfig:"GC_GRACE_PERIOD" default:"24h" validate:"gte=0"`
}

type AuthConfig struct {
	JWTSecret  string `envconfig:"AUTH_JWT_SECRET" required:"true" validate:"min=16"`
	Issuer     string `envconfig:"AUTH_ISSUER" default:"roomdrop"`
	AdminToken string `envconfig:"AUTH_ADMIN_TOKEN" required:"true" validate:"min=16"`
}

type RedisConfig struct {
	Addr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password  string `envconfig:"REDIS_PASSWORD"`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"roomdrop"`
}

type NATSConfig struct {
	URL          string `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	StreamName   string `envconfig:"NATS_STREAM_NAME" default:"ROOMS"`
	ConsumerName string `envconfig:"NATS_CONSUMER_NAME" default:"room-lifecycle"`
	Subject      string `envconfig:"NATS_SUBJECT" default:"rooms.presence"`
	DeliverGroup string `envconfig:"NATS_DELIVER_GROUP" default:"room-lifecycle"`
}

type DatabaseConfig struct {
	Host           string        `envconfig:"DB_HOST" required:"true"`
	Port           int           `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER" required:"true"`
	Password       string        `envconfig:"DB_PASSWORD" required:"true"`
	Name           string        `envconfig:"DB_NAME" required:"true"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenCons    int           `envconfig:"DB_MAX_OPEN_CONS" default:"25"`
	MaxIdleCons    int           `envconfig:"DB_MAX_IDLE_CONS" default:"5"`
	ConMaxLifeTime time.Duration `envconfig:"DB_CONMAX_LIFE_TIME" default:"5m"`
}

var validate = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the rules that depend on several fields
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
		}
		return err
	}

	if cfg.Storage.Backend == StorageBackendMinio && (cfg.Minio.Endpoint == "" || cfg.Minio.AccessKey == "" || cfg.Minio.SecretKey == "") {
		return fmt.Errorf("minio: endpoint and keys are required when STORAGE_BACKEND=minio")
	}

	return nil
}
