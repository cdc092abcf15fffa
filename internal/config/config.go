package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Version  string         `yaml:"version" default:"1"`
	Site     SiteConfig     `yaml:"site"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Images   ImagesConfig   `yaml:"images"`
	Auth     AuthConfig     `yaml:"auth"`
	Admin    AdminConfig    `yaml:"admin"`
	Preview  PreviewConfig  `yaml:"preview"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"Folio"`
	Description string `yaml:"description" default:"Portfolio and content admin"`
}

type ServerConfig struct {
	Host           string        `yaml:"host" default:"0.0.0.0"`
	Port           string        `yaml:"port" default:"12600"`
	AllowedOrigins []string      `yaml:"allowed_origins" default:"http://localhost:3000,http://localhost:5173"`
	MaxUploadMB    int           `yaml:"max_upload_mb" default:"10"`
	ReadTimeout    time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" default:"30s"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" default:"sqlite"`
	DSN    string `yaml:"dsn" default:"./folio.db"`
	// WatchInterval is how often the server looks for writes made by other processes.
	WatchInterval time.Duration `yaml:"watch_interval" default:"30s"`
}

type CacheConfig struct {
	Driver        string        `yaml:"driver" default:"memory"`
	RedisAddr     string        `yaml:"redis_addr" default:"localhost:6379"`
	RedisPassword string        `yaml:"redis_password" default:""`
	RedisDB       int           `yaml:"redis_db" default:"0"`
	TTL           time.Duration `yaml:"ttl" default:"5m"`
}

type ImagesConfig struct {
	Store         string   `yaml:"store" default:"local"`
	LocalDir      string   `yaml:"local_dir" default:"./uploads"`
	PublicBaseURL string   `yaml:"public_base_url" default:"http://localhost:12600"`
	UploadPresets []string `yaml:"upload_presets" default:"folio"`
	S3            S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket        string `yaml:"bucket" default:""`
	Endpoint      string `yaml:"endpoint" default:""`
	Region        string `yaml:"region" default:"auto"`
	PublicBaseURL string `yaml:"public_base_url" default:""`
}

type AuthConfig struct {
	Enabled       bool          `yaml:"enabled" default:"true"`
	Type          string        `yaml:"type" default:"ed25519"`
	PublicKeyPath string        `yaml:"public_key_path" default:"pubkey.pem"`
	TokenTTL      time.Duration `yaml:"token_ttl" default:"24h"`
	UserID        string        `yaml:"user_id" default:"admin"`
	// ClerkAdminIDs restricts the clerk provider to these users. Empty admits any session.
	ClerkAdminIDs []string      `yaml:"clerk_admin_ids"`
}

type AdminConfig struct {
	APIURL       string        `yaml:"api_url" default:"http://localhost:12600"`
	ImageHostURL string        `yaml:"image_host_url" default:""`
	UploadPreset string        `yaml:"upload_preset" default:"folio"`
	TokenFile    string        `yaml:"token_file" default:".folio-token"`
	Timeout      time.Duration `yaml:"timeout" default:"30s"`
}

type PreviewConfig struct {
	SyntaxTheme string `yaml:"syntax_theme" default:"gruvbox"`
	// Renderer is "mmark" or "classic".
	Renderer string `yaml:"renderer" default:"mmark"`
}

// Secrets is populated from the environment only, never from the YAML file.
type Secrets struct {
	JWTSecret       string
	Ed25519PubKey   string
	ClerkKey        string
	AWSAccessKeyID  string
	AWSSecretKey    string
	AdminToken      string
	DatabaseURL     string
	CloudinaryCloud string
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	// Try to read and parse the config file
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	AppConfig = config
	return nil
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func LoadSecrets() Secrets {
	return Secrets{
		JWTSecret:       os.Getenv(EnvJWTSecret),
		Ed25519PubKey:   os.Getenv(EnvEd25519PubKey),
		ClerkKey:        os.Getenv(EnvClerkKey),
		AWSAccessKeyID:  os.Getenv(EnvAWSAccessKeyID),
		AWSSecretKey:    os.Getenv(EnvAWSSecretKey),
		AdminToken:      os.Getenv(EnvAdminToken),
		DatabaseURL:     os.Getenv(EnvDatabaseURL),
		CloudinaryCloud: os.Getenv(EnvCloudinaryCloud),
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	switch c.Cache.Driver {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}

	switch c.Images.Store {
	case StoreLocal, StoreS3:
	default:
		return fmt.Errorf("unknown image store %q", c.Images.Store)
	}
	if c.Images.Store == StoreS3 && c.Images.S3.Bucket == "" {
		return fmt.Errorf("images.s3.bucket is required when images.store is %q", StoreS3)
	}

	switch c.Auth.Type {
	case AuthEd25519, AuthClerk:
	default:
		return fmt.Errorf("unknown auth type %q", c.Auth.Type)
	}

	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1")
	}
	return nil
}

func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// ImageHostURL is where eager uploads go. Without an explicit host the server's own
// Cloudinary-compatible endpoint is used.
func (c *Config) ImageHostURL() string {
	if c.Admin.ImageHostURL != "" {
		return c.Admin.ImageHostURL
	}
	return strings.TrimRight(c.Admin.APIURL, "/") + "/api/images"
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		if field.Type() == durationType {
			if val, err := time.ParseDuration(defaultValue); err == nil {
				field.SetInt(int64(val))
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
