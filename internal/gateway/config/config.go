package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	Blob     BlobConfig
	Postgres PostgresConfig
	GenDoc   GenDocConfig
}

type BlobConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type PostgresConfig struct {
	// DSN empty means the in-memory entity store is used.
	DSN string
}

type GenDocConfig struct {
	Model string
	// RetryAttempts bounds the model retry decorator.
	RetryAttempts int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:     *port,
		Env:      env,
		Blob:     loadBlobConfig(env),
		Postgres: PostgresConfig{DSN: strings.TrimSpace(os.Getenv("ENTITY_STORE_PG_DSN"))},
		GenDoc:   loadGenDocConfig(),
	}, nil
}

func loadBlobConfig(env string) BlobConfig {
	endpoint := resolveBlobEndpoint(env)
	return BlobConfig{
		Enabled:   strings.EqualFold(strings.TrimSpace(env), "local") || endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("BLOB_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("BLOB_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("BLOB_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("BLOB_S3_BUCKET")), "searchwizard-artifacts"),
		UseSSL:    resolveBlobUseSSL(env),
	}
}

func resolveBlobEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return firstNonEmpty(strings.TrimSpace(os.Getenv("BLOB_MINIO_ENDPOINT")), "minio:9000")
	}
	return strings.TrimSpace(os.Getenv("BLOB_S3_ENDPOINT"))
}

func resolveBlobUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("BLOB_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func loadGenDocConfig() GenDocConfig {
	attempts := 3
	if raw := strings.TrimSpace(os.Getenv("GENDOC_RETRY_ATTEMPTS")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			attempts = n
		}
	}
	return GenDocConfig{
		Model:         firstNonEmpty(strings.TrimSpace(os.Getenv("GENDOC_MODEL")), "gemini-2.0-flash"),
		RetryAttempts: attempts,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
