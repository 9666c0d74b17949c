// Package config собирает настройки из YAML-файла (необязательного)
// и переменных окружения. Окружение всегда важнее файла.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Tables struct {
	RFPs        string `yaml:"rfps"`
	Vendors     string `yaml:"vendors"`
	Submissions string `yaml:"submissions"`
}

type Admin struct {
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	SessionTTL time.Duration `yaml:"sessionTtl"`
}

type Branding struct {
	CompanyName  string `yaml:"companyName"`
	PortalTitle  string `yaml:"portalTitle"`
	SupportEmail string `yaml:"supportEmail"`
}

type Server struct {
	Address         string        `yaml:"address"`
	PublicBaseURL   string        `yaml:"publicBaseUrl"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// Store выбор хранилища записей: airtable | postgres | memory
type Store struct {
	Backend     string `yaml:"backend"`
	APIURL      string `yaml:"apiUrl"`
	DatabaseURL string `yaml:"databaseUrl"`
}

// Media выбор хранилища файлов: cloudinary | s3
type Media struct {
	Backend   string `yaml:"backend"`
	// APIURL хост upload API cloudinary без /v1_1
	APIURL    string `yaml:"apiUrl"`
	Namespace string `yaml:"namespace"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`

	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
}

type Registration struct {
	UploadTimeout time.Duration `yaml:"uploadTimeout"`
	IdleTTL       time.Duration `yaml:"idleTtl"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	BaseID       string   `yaml:"baseId"`
	APIKey       string   `yaml:"apiKey"`
	Tables       Tables   `yaml:"tables"`
	CloudName    string   `yaml:"cloudName"`
	UploadPreset string   `yaml:"uploadPreset"`
	Admin        Admin    `yaml:"admin"`
	Branding     Branding `yaml:"branding"`

	Server       Server       `yaml:"server"`
	Store        Store        `yaml:"store"`
	Media        Media        `yaml:"media"`
	Registration Registration `yaml:"registration"`
	Logging      Logging      `yaml:"logging"`
}

// Defaults значения, которые подходят для локального запуска
func Defaults() Config {
	return Config{
		Tables: Tables{RFPs: "RFPs", Vendors: "Vendors", Submissions: "Submissions"},
		Admin:  Admin{SessionTTL: 8 * time.Hour},
		Branding: Branding{
			CompanyName: "RFP Portal",
			PortalTitle: "Vendor Portal",
		},
		Server: Server{
			Address:         "0.0.0.0:8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Store: Store{Backend: "airtable"},
		Media: Media{Backend: "cloudinary", Namespace: "rfp-portal"},
		Registration: Registration{
			UploadTimeout: 2 * time.Minute,
			IdleTTL:       time.Hour,
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Load читает CONFIG_FILE (если задан), затем переменные окружения
func Load() (*Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}
	var errs []error
	dur := func(dst *time.Duration, key string) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}

	str(&c.BaseID, "AIRTABLE_BASE_ID")
	str(&c.APIKey, "AIRTABLE_API_KEY", "AIRTABLE_TOKEN")
	str(&c.Tables.RFPs, "AIRTABLE_RFPS_TABLE")
	str(&c.Tables.Vendors, "AIRTABLE_VENDORS_TABLE")
	str(&c.Tables.Submissions, "AIRTABLE_SUBMISSIONS_TABLE")
	str(&c.CloudName, "CLOUDINARY_CLOUD_NAME")
	str(&c.UploadPreset, "CLOUDINARY_UPLOAD_PRESET")
	str(&c.Admin.Username, "ADMIN_USERNAME")
	str(&c.Admin.Password, "ADMIN_PASSWORD")
	dur(&c.Admin.SessionTTL, "ADMIN_SESSION_TTL")
	str(&c.Branding.CompanyName, "BRANDING_COMPANY_NAME")
	str(&c.Branding.PortalTitle, "BRANDING_PORTAL_TITLE")
	str(&c.Branding.SupportEmail, "BRANDING_SUPPORT_EMAIL")

	str(&c.Server.Address, "SERVER_ADDRESS")
	str(&c.Server.PublicBaseURL, "PUBLIC_BASE_URL")
	dur(&c.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")
	str(&c.Store.Backend, "STORE_BACKEND")
	str(&c.Store.APIURL, "AIRTABLE_API_URL")
	str(&c.Store.DatabaseURL, "POSTGRES_CONN")
	str(&c.Media.Backend, "MEDIA_BACKEND")
	str(&c.Media.APIURL, "CLOUDINARY_API_URL")
	str(&c.Media.Namespace, "MEDIA_NAMESPACE")
	str(&c.Media.Bucket, "S3_BUCKET")
	str(&c.Media.Region, "AWS_REGION")
	str(&c.Media.Endpoint, "S3_ENDPOINT")
	str(&c.Media.AccessKeyID, "S3_ACCESS_KEY_ID")
	str(&c.Media.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	dur(&c.Registration.UploadTimeout, "UPLOAD_TIMEOUT")
	dur(&c.Registration.IdleTTL, "REGISTRATION_IDLE_TTL")
	str(&c.Logging.Level, "LOG_LEVEL")
	str(&c.Logging.Format, "LOG_FORMAT")

	c.Store.Backend = strings.ToLower(c.Store.Backend)
	c.Media.Backend = strings.ToLower(c.Media.Backend)
	return errors.Join(errs...)
}

// MissingError перечисляет незаданные параметры
type MissingError struct {
	Options []string
}

func (e *MissingError) Error() string {
	return "missing configuration: " + strings.Join(e.Options, ", ")
}

func checkPresence(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return &MissingError{Options: missing}
	}
	return nil
}

// RequireStore проверяет настройки выбранного хранилища записей
func (c *Config) RequireStore() error {
	switch c.Store.Backend {
	case "airtable", "":
		return checkPresence(
			"baseId", c.BaseID,
			"apiKey", c.APIKey,
			"tables.rfps", c.Tables.RFPs,
			"tables.vendors", c.Tables.Vendors,
			"tables.submissions", c.Tables.Submissions,
		)
	case "postgres":
		return checkPresence(
			"store.databaseUrl", c.Store.DatabaseURL,
			"tables.rfps", c.Tables.RFPs,
			"tables.vendors", c.Tables.Vendors,
			"tables.submissions", c.Tables.Submissions,
		)
	case "memory":
		return nil
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
}

func (c *Config) RequireMedia() error {
	switch c.Media.Backend {
	case "cloudinary", "":
		return checkPresence("cloudName", c.CloudName, "uploadPreset", c.UploadPreset)
	case "s3":
		return checkPresence("media.bucket", c.Media.Bucket, "media.region", c.Media.Region)
	default:
		return fmt.Errorf("unknown media backend %q", c.Media.Backend)
	}
}

func (c *Config) RequireAdmin() error {
	return checkPresence("admin.username", c.Admin.Username, "admin.password", c.Admin.Password)
}
