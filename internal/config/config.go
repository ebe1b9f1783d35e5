// Package config loads the client configuration from YAML, environment and struct defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, as in ARCHIVE_S3_BUCKET.
const EnvPrefix = "ARCHIVE"

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Theme    ThemeConfig    `yaml:"theme"`
	Upload   UploadConfig   `yaml:"upload"`
	Storage  StorageConfig  `yaml:"storage"`
	Editor   EditorConfig   `yaml:"editor"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type SiteConfig struct {
	Name    string `yaml:"name" default:"The Archive"`
	Tagline string `yaml:"tagline" default:"Notes, posts and everything in between"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"127.0.0.1"`
	Port string `yaml:"port" default:"12600"`
}

// APIConfig describes the remote blog API this client talks to.
type APIConfig struct {
	BaseURL        string `yaml:"base_url" default:"http://localhost:8080"`
	TimeoutSeconds int    `yaml:"timeout_seconds" default:"0"`
	PostMethod     string `yaml:"post_method" default:"POST"`
	CreatePath     string `yaml:"create_path" default:"/api/new-post/"`
}

type MarkdownConfig struct {
	Engine string `yaml:"engine" default:"gfm"`
}

type ThemeConfig struct {
	Default            string       `yaml:"default" default:"dark-theme"`
	SyntaxHighlighting SyntaxConfig `yaml:"syntax_highlighting"`
}

type SyntaxConfig struct {
	DefaultDark  string `yaml:"default_dark" default:"gruvbox"`
	DefaultLight string `yaml:"default_light" default:"catppuccin-latte"`
}

type UploadConfig struct {
	Backend  string   `yaml:"backend" default:"api"`
	Endpoint string   `yaml:"endpoint" default:"file"`
	MaxBytes int      `yaml:"max_bytes" default:"33554432"`
	S3       S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint" default:""`
	Region          string `yaml:"region" default:"auto"`
	Bucket          string `yaml:"bucket" default:""`
	PublicURL       string `yaml:"public_url" default:""`
	Prefix          string `yaml:"prefix" default:"assets"`
	AccessKeyID     string `yaml:"access_key_id" default:""`
	SecretAccessKey string `yaml:"secret_access_key" default:""`
}

type StorageConfig struct {
	Path string `yaml:"path" default:"./archive-writer.db"`
}

type EditorConfig struct {
	LivePreview         bool `yaml:"live_preview" default:"true"`
	Autosave            bool `yaml:"autosave" default:"true"`
	RedirectDelayMillis int  `yaml:"redirect_delay_ms" default:"1500"`
}

var AppConfig *Config

// Default returns a configuration with only the struct defaults applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func LoadConfig(path string) error {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnv(config); err != nil {
		return err
	}

	if err := config.Validate(); err != nil {
		return err
	}

	AppConfig = config
	return nil
}

// Validate reports configuration values the client cannot work with.
func (c *Config) Validate() error {
	switch c.Markdown.Engine {
	case EngineGFM, EngineClassic, EngineMmark:
	default:
		return fmt.Errorf(ErrUnknownEngineFmt, c.Markdown.Engine)
	}

	switch c.Upload.Backend {
	case UploadBackendAPI:
	case UploadBackendS3:
		if c.Upload.S3.Bucket == "" {
			return errors.New(ErrMissingBucket)
		}
	default:
		return fmt.Errorf(ErrUnknownBackendFmt, c.Upload.Backend)
	}

	if c.API.BaseURL == "" {
		return errors.New(ErrMissingBaseURL)
	}
	return nil
}

// envOverrides lists the ARCHIVE_* variables that override the file.
// Secrets are expected to come from the environment (or .env) rather than YAML.
type envOverrides struct {
	APIBaseURL        *string `envconfig:"API_BASE_URL"`
	LogLevel          *string `envconfig:"LOG_LEVEL"`
	StoragePath       *string `envconfig:"STORAGE_PATH"`
	MarkdownEngine    *string `envconfig:"MARKDOWN_ENGINE"`
	UploadBackend     *string `envconfig:"UPLOAD_BACKEND"`
	S3Endpoint        *string `envconfig:"S3_ENDPOINT"`
	S3Bucket          *string `envconfig:"S3_BUCKET"`
	S3PublicURL       *string `envconfig:"S3_PUBLIC_URL"`
	S3AccessKeyID     *string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey *string `envconfig:"S3_SECRET_ACCESS_KEY"`
}

func applyEnv(c *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	override(&c.API.BaseURL, env.APIBaseURL)
	override(&c.Logging.Level, env.LogLevel)
	override(&c.Storage.Path, env.StoragePath)
	override(&c.Markdown.Engine, env.MarkdownEngine)
	override(&c.Upload.Backend, env.UploadBackend)
	override(&c.Upload.S3.Endpoint, env.S3Endpoint)
	override(&c.Upload.S3.Bucket, env.S3Bucket)
	override(&c.Upload.S3.PublicURL, env.S3PublicURL)
	override(&c.Upload.S3.AccessKeyID, env.S3AccessKeyID)
	override(&c.Upload.S3.SecretAccessKey, env.S3SecretAccessKey)
	return nil
}

func override(field, v *string) {
	if v != nil && *v != "" {
		*field = *v
	}
}

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
