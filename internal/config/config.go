package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"portfolio-gallery/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/wb-go/wbf/retry"
)

const defaultConfigPath = "config/config.yaml"

type Config struct {
	Env     string        `yaml:"env" env:"APP_ENV" env-default:"local"`
	Server  ServerConfig  `yaml:"server"`
	Drive   DriveConfig   `yaml:"drive"`
	Gallery GalleryConfig `yaml:"gallery"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Minio   MinioConfig   `yaml:"minio"`
	DB      DBConfig      `yaml:"db"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Worker  WorkerConfig  `yaml:"worker"`
	Retry   RetryConfig   `yaml:"retry"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// DriveConfig holds the service-account credential pair for Google Drive.
type DriveConfig struct {
	ServiceAccountEmail string        `yaml:"service_account_email" env:"GOOGLE_SERVICE_ACCOUNT_EMAIL"`
	PrivateKey          string        `yaml:"private_key" env:"GOOGLE_PRIVATE_KEY"`
	TokenURL            string        `yaml:"token_url" env:"GOOGLE_TOKEN_URL" env-default:"https://oauth2.googleapis.com/token"`
	Endpoint            string        `yaml:"endpoint" env:"GOOGLE_DRIVE_ENDPOINT"`
	Timeout             time.Duration `yaml:"timeout" env:"GOOGLE_DRIVE_TIMEOUT" env-default:"20s"`
	PageSize            int64         `yaml:"page_size" env:"GOOGLE_DRIVE_PAGE_SIZE" env-default:"1000" validate:"gte=1,lte=1000"`
}

// Key returns the private key with escaped newlines expanded, which is how
// PEM keys usually survive a trip through an environment variable.
func (d DriveConfig) Key() string {
	return strings.ReplaceAll(d.PrivateKey, `\n`, "\n")
}

type GalleryConfig struct {
	OutputDir        string            `yaml:"output_dir" env:"GALLERY_OUTPUT_DIR" env-default:"public/gallery" validate:"required"`
	PublicPath       string            `yaml:"public_path" env:"GALLERY_PUBLIC_PATH" env-default:"/gallery"`
	ImageBaseURL     string            `yaml:"image_base_url" env:"GALLERY_IMAGE_BASE_URL" env-default:"/images"`
	Folders          map[string]string `yaml:"folders" env:"GALLERY_FOLDERS"`
	Covers           map[string]string `yaml:"covers" env:"GALLERY_COVERS"`
	Categories       []CategoryConfig  `yaml:"categories" validate:"unique=Slug,unique=Order,dive"`
	Concurrency      int               `yaml:"concurrency" env:"GALLERY_CONCURRENCY" env-default:"1" validate:"gte=1,lte=16"`
	BlurPlaceholders bool              `yaml:"blur_placeholders" env:"GALLERY_BLUR_PLACEHOLDERS" env-default:"true"`
	CoverWidth       int               `yaml:"cover_width" env:"GALLERY_COVER_WIDTH" env-default:"1200" validate:"gte=1"`
	CoverQuality     int               `yaml:"cover_quality" env:"GALLERY_COVER_QUALITY" env-default:"90" validate:"gte=1,lte=100"`
	CoverEffort      int               `yaml:"cover_effort" env:"GALLERY_COVER_EFFORT" env-default:"6" validate:"gte=0,lte=9"`
}

type CategoryConfig struct {
	Slug        string `yaml:"slug" validate:"required"`
	Title       string `yaml:"title" validate:"required"`
	Description string `yaml:"description"`
	Order       int    `yaml:"order" validate:"gte=1"`
}

type ProxyConfig struct {
	ThumbnailWidth  int             `yaml:"thumbnail_width" env:"PROXY_THUMBNAIL_WIDTH" env-default:"800" validate:"gte=1"`
	MediumWidth     int             `yaml:"medium_width" env:"PROXY_MEDIUM_WIDTH" env-default:"1600" validate:"gtfield=ThumbnailWidth"`
	FullWidth       int             `yaml:"full_width" env:"PROXY_FULL_WIDTH" env-default:"2048" validate:"gtfield=MediumWidth"`
	WebPQuality     int             `yaml:"webp_quality" env:"PROXY_WEBP_QUALITY" env-default:"90" validate:"gte=1,lte=100"`
	AVIFQuality     int             `yaml:"avif_quality" env:"PROXY_AVIF_QUALITY" env-default:"65" validate:"gte=1,lte=100"`
	JPEGQuality     int             `yaml:"jpeg_quality" env:"PROXY_JPEG_QUALITY" env-default:"90" validate:"gte=1,lte=100"`
	Effort          int             `yaml:"effort" env:"PROXY_EFFORT" env-default:"4" validate:"gte=0,lte=9"`
	UpstreamTimeout time.Duration   `yaml:"upstream_timeout" env:"PROXY_UPSTREAM_TIMEOUT" env-default:"20s"`
	Watermark       WatermarkConfig `yaml:"watermark"`
}

type WatermarkConfig struct {
	Text     string  `yaml:"text" env:"WATERMARK_TEXT"`
	Opacity  float64 `yaml:"opacity" env:"WATERMARK_OPACITY" env-default:"0.5" validate:"gte=0,lte=1"`
	Position string  `yaml:"position" env:"WATERMARK_POSITION" env-default:"bottom-right" validate:"oneof=top-left top-right top-center bottom-left bottom-right bottom-center center"`
	FontSize float64 `yaml:"font_size" env:"WATERMARK_FONT_SIZE" env-default:"36" validate:"gt=0"`
	Color    string  `yaml:"color" env:"WATERMARK_COLOR" env-default:"255,255,255"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"gallery-variants"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

func (m MinioConfig) Enabled() bool {
	return m.Endpoint != ""
}

type DBConfig struct {
	Host            string        `yaml:"host" env:"DB_HOST"`
	Port            int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	Name            string        `yaml:"name" env:"DB_NAME" env-default:"gallery"`
	SSLMode         string        `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
}

func (d DBConfig) Enabled() bool {
	return d.Host != ""
}

type KafkaConfig struct {
	Brokers         []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	RegenerateTopic string   `yaml:"regenerate_topic" env:"KAFKA_REGENERATE_TOPIC" env-default:"gallery-regenerate"`
	GeneratedTopic  string   `yaml:"generated_topic" env:"KAFKA_GENERATED_TOPIC" env-default:"gallery-generated"`
	GroupID         string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"gallery-worker-group"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// WorkerConfig tunes the regeneration worker. Tasks are handled one at a
// time since every run rewrites the same manifests.
type WorkerConfig struct {
	RunTimeout time.Duration `yaml:"run_timeout" env:"WORKER_RUN_TIMEOUT" env-default:"30m"`
	Buffer     int           `yaml:"buffer" env:"WORKER_BUFFER" env-default:"8" validate:"gte=1"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3" validate:"gte=1"`
	Delay    time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"500ms"`
	Backoff  float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2" validate:"gte=1"`
}

// MustLoad reads the config file named by CONFIG_PATH, falling back to
// environment variables alone when the file does not exist.
func MustLoad() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	attempts := c.Retry.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := c.Retry.Backoff
	if backoff < 1 {
		backoff = 1
	}
	return retry.Strategy{
		Attempts: attempts,
		Delay:    c.Retry.Delay,
		Backoff:  backoff,
	}
}

func (c *Config) DBDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

// FolderID resolves the remote folder configured for a category slug.
func (c *Config) FolderID(slug string) (string, bool) {
	id, ok := c.Gallery.Folders[slug]
	id = strings.TrimSpace(id)
	return id, ok && id != ""
}

// CoverFileID resolves an explicitly configured cover image for a category.
func (c *Config) CoverFileID(slug string) (string, bool) {
	id, ok := c.Gallery.Covers[slug]
	id = strings.TrimSpace(id)
	return id, ok && id != ""
}

// CategoryMappings returns the configured categories, or the built-in
// table when none are configured, sorted by display order.
func (c *Config) CategoryMappings() []domain.CategoryFolderMapping {
	var mappings []domain.CategoryFolderMapping
	if len(c.Gallery.Categories) == 0 {
		mappings = append(mappings, DefaultCategories...)
	} else {
		for _, cat := range c.Gallery.Categories {
			mappings = append(mappings, domain.CategoryFolderMapping{
				Slug:        cat.Slug,
				Title:       cat.Title,
				Description: cat.Description,
				Order:       cat.Order,
			})
		}
	}

	sort.SliceStable(mappings, func(i, j int) bool {
		return mappings[i].Order < mappings[j].Order
	})
	return mappings
}

// SizeWidths maps each proxy size to its target width.
func (c *Config) SizeWidths() map[domain.ImageSize]int {
	return map[domain.ImageSize]int{
		domain.SizeThumbnail: c.Proxy.ThumbnailWidth,
		domain.SizeMedium:    c.Proxy.MediumWidth,
		domain.SizeFull:      c.Proxy.FullWidth,
	}
}
