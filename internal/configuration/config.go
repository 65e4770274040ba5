package configuration

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database      DatabaseConfig
	MinIO         MinIOConfig
	Server        ServerConfig
	Uploads       UploadsConfig
	NATSURL       string
	MetadataStore string
	TraceEnabled  bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MinIOConfig struct {
	Enabled    bool
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
	PublicURL  string
	Visibility string
}

type ServerConfig struct {
	Port string
}

type UploadsConfig struct {
	DefaultDisk     string
	LocalRoot       string
	LocalURL        string
	LocalVisibility string
	SigningKey      string
	SignedURLTTL    time.Duration
	URLCacheSize    int
	MetadataFile    string
	OwnerKinds      []string
	ThumbnailSizes  map[string]models.ThumbnailSize
}

// fileOverlay is the optional YAML file pointed at by UPLOADS_CONFIG_FILE.
type fileOverlay struct {
	DefaultDisk    string                          `yaml:"default_disk"`
	ThumbnailSizes map[string]models.ThumbnailSize `yaml:"thumbnail_sizes"`
	SignedURLTTL   int                             `yaml:"signed_url_ttl_minutes"`
	Disks          map[string]struct {
		Visibility string `yaml:"visibility"`
	} `yaml:"disks"`
}

func Load() (*Config, error) {
	sizes, err := ParseThumbnailSizes(getEnv("UPLOADS_THUMBNAIL_SIZES", "thumb=150x150,medium=600x600"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "fileuser"),
			Password: getEnv("DB_PASSWORD", "filepassword"),
			DBName:   getEnv("DB_NAME", "filemanager"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		MinIO: MinIOConfig{
			Enabled:    getEnv("MINIO_ENABLED", "false") == "true",
			Endpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
			BucketName: getEnv("MINIO_BUCKET", "uploads"),
			UseSSL:     getEnv("MINIO_USE_SSL", "false") == "true",
			PublicURL:  getEnv("MINIO_PUBLIC_URL", ""),
			Visibility: getEnv("MINIO_VISIBILITY", "private"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Uploads: UploadsConfig{
			DefaultDisk:     getEnv("UPLOADS_DEFAULT_DISK", "public"),
			LocalRoot:       getEnv("UPLOADS_LOCAL_ROOT", "./storage/app"),
			LocalURL:        getEnv("UPLOADS_LOCAL_URL", "http://localhost:8080/storage"),
			LocalVisibility: getEnv("UPLOADS_LOCAL_VISIBILITY", "public"),
			SigningKey:      getEnv("UPLOADS_SIGNING_KEY", "change-me"),
			SignedURLTTL:    time.Duration(getEnvInt("UPLOADS_SIGNED_URL_TTL_MINUTES", 5)) * time.Minute,
			URLCacheSize:    getEnvInt("UPLOADS_URL_CACHE_SIZE", 4096),
			MetadataFile:    getEnv("UPLOADS_METADATA_FILE", "upload_metadata.json"),
			OwnerKinds:      splitList(getEnv("UPLOADS_OWNER_KINDS", "user")),
			ThumbnailSizes:  sizes,
		},
		NATSURL:       getEnv("NATS_URL", ""),
		MetadataStore: getEnv("METADATA_STORE", "postgres"),
		TraceEnabled:  getEnv("DD_TRACE_ENABLED", "false") == "true",
	}

	if path := getEnv("UPLOADS_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if overlay.DefaultDisk != "" {
		c.Uploads.DefaultDisk = overlay.DefaultDisk
	}
	if len(overlay.ThumbnailSizes) > 0 {
		for label, size := range overlay.ThumbnailSizes {
			if err := validateSize(label, size); err != nil {
				return err
			}
		}
		c.Uploads.ThumbnailSizes = overlay.ThumbnailSizes
	}
	if overlay.SignedURLTTL > 0 {
		c.Uploads.SignedURLTTL = time.Duration(overlay.SignedURLTTL) * time.Minute
	}
	if d, ok := overlay.Disks["public"]; ok && d.Visibility != "" {
		c.Uploads.LocalVisibility = d.Visibility
	}
	if d, ok := overlay.Disks["minio"]; ok && d.Visibility != "" {
		c.MinIO.Visibility = d.Visibility
	}
	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// ParseThumbnailSizes reads "thumb=150x150,medium=600x400".
func ParseThumbnailSizes(raw string) (map[string]models.ThumbnailSize, error) {
	sizes := make(map[string]models.ThumbnailSize)
	for _, item := range splitList(raw) {
		label, dims, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("invalid thumbnail size %q: expected label=WxH", item)
		}
		w, h, ok := strings.Cut(dims, "x")
		if !ok {
			return nil, fmt.Errorf("invalid thumbnail size %q: expected label=WxH", item)
		}
		width, err := strconv.Atoi(strings.TrimSpace(w))
		if err != nil {
			return nil, fmt.Errorf("invalid width in %q: %w", item, err)
		}
		height, err := strconv.Atoi(strings.TrimSpace(h))
		if err != nil {
			return nil, fmt.Errorf("invalid height in %q: %w", item, err)
		}
		label = strings.TrimSpace(label)
		size := models.ThumbnailSize{Width: width, Height: height}
		if err := validateSize(label, size); err != nil {
			return nil, err
		}
		sizes[label] = size
	}
	return sizes, nil
}

// SizeLabels returns the configured labels in a stable order.
func SizeLabels(sizes map[string]models.ThumbnailSize) []string {
	labels := make([]string, 0, len(sizes))
	for label := range sizes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func validateSize(label string, size models.ThumbnailSize) error {
	if label == "" || label == "full" {
		return fmt.Errorf("invalid thumbnail label %q", label)
	}
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("thumbnail %q must have positive dimensions", label)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
