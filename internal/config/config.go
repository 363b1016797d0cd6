// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the retention tool.
type Config struct {
	// Tenant & authentication
	AdminURL     string // Tenant admin endpoint, e.g. https://contoso-admin.sharepoint.com
	TenantID     string // Azure AD tenant ID (GUID)
	ClientID     string // Registered application (client) ID (GUID)
	AuthMode     string // "secret", "certificate" or "devicecode"; empty prompts interactively
	ClientSecret string
	PfxPath      string // Path to .pfx certificate file (certificate auth)
	PfxPassword  string

	// Local output
	DownloadDir string // Destination for preservation store downloads
	ReportDir   string // Destination for CSV reports and run logs
	LogDir      string // Session transcript directory

	// Blob upload target (optional)
	UploadBackend string // "azure", "s3" or "" (downloads stay local)
	BlobAccount   string // Azure storage account URL, e.g. https://acct.blob.core.windows.net
	BlobContainer string
	BlobSASToken  string // Time-limited SAS credential, with or without leading "?"

	// S3 upload target (alternate backend)
	S3Bucket  string
	S3Prefix  string
	AWSRegion string

	// Behaviour
	DuplicatePolicy string // "skip", "overwrite" or "rename"
	PageSize        int    // Library paging size

	// Output control
	Debug bool
	Quiet bool // Suppress per-item progress lines (useful when run via script)
}

// LoadConfig loads configuration from CLI flags, environment variables, and YAML file.
// Priority: CLI flags > environment variables > YAML file > defaults
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	adminURL := flag.String("admin-url", "", "Tenant admin endpoint URL")
	tenantID := flag.String("tenant-id", "", "Azure AD tenant ID (GUID)")
	clientID := flag.String("client-id", "", "Application (client) ID (GUID)")
	authMode := flag.String("auth-mode", "", "Authentication mode: secret, certificate or devicecode")
	clientSecret := flag.String("client-secret", "", "Client secret (secret auth)")
	pfxPath := flag.String("pfx", "", "Path to .pfx certificate file (certificate auth)")
	pfxPassword := flag.String("pfx-password", "", "Password for the .pfx file")
	downloadDir := flag.String("download-dir", "", "Directory for preservation store downloads")
	reportDir := flag.String("report-dir", "", "Directory for CSV reports and run logs")
	logDir := flag.String("log-dir", "", "Directory for session transcript logs")
	uploadBackend := flag.String("upload-backend", "", "Optional upload backend: azure or s3")
	blobAccount := flag.String("blob-account", "", "Azure storage account URL")
	blobContainer := flag.String("blob-container", "", "Azure blob container name")
	blobSAS := flag.String("blob-sas", "", "SAS token for the blob container")
	s3Bucket := flag.String("s3-bucket", "", "S3 bucket name (s3 backend)")
	s3Prefix := flag.String("s3-prefix", "", "S3 key prefix (s3 backend)")
	awsRegion := flag.String("aws-region", "", "AWS region (s3 backend)")
	duplicatePolicy := flag.String("duplicate-policy", "", "Duplicate handling: skip, overwrite or rename")
	pageSize := flag.Int("page-size", 0, "Library paging size (default: 2000)")
	configFile := flag.String("config-file", "retention-config.yaml", "Config file path (default: retention-config.yaml)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	quiet := flag.Bool("quiet", false, "Suppress per-item progress output")

	flag.Parse()

	// Load from YAML file if it exists
	if *configFile != "" {
		if err := loadFromYAML(cfg, *configFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnv(cfg)

	// Override with CLI flags (highest priority)
	if *adminURL != "" {
		cfg.AdminURL = *adminURL
	}
	if *tenantID != "" {
		cfg.TenantID = *tenantID
	}
	if *clientID != "" {
		cfg.ClientID = *clientID
	}
	if *authMode != "" {
		cfg.AuthMode = *authMode
	}
	if *clientSecret != "" {
		cfg.ClientSecret = *clientSecret
	}
	if *pfxPath != "" {
		cfg.PfxPath = *pfxPath
	}
	if *pfxPassword != "" {
		cfg.PfxPassword = *pfxPassword
	}
	if *downloadDir != "" {
		cfg.DownloadDir = *downloadDir
	}
	if *reportDir != "" {
		cfg.ReportDir = *reportDir
	}
	if *logDir != "" {
		cfg.LogDir = *logDir
	}
	if *uploadBackend != "" {
		cfg.UploadBackend = *uploadBackend
	}
	if *blobAccount != "" {
		cfg.BlobAccount = *blobAccount
	}
	if *blobContainer != "" {
		cfg.BlobContainer = *blobContainer
	}
	if *blobSAS != "" {
		cfg.BlobSASToken = *blobSAS
	}
	if *s3Bucket != "" {
		cfg.S3Bucket = *s3Bucket
	}
	if *s3Prefix != "" {
		cfg.S3Prefix = *s3Prefix
	}
	if *awsRegion != "" {
		cfg.AWSRegion = *awsRegion
	}
	if *duplicatePolicy != "" {
		cfg.DuplicatePolicy = *duplicatePolicy
	}
	if *pageSize > 0 {
		cfg.PageSize = *pageSize
	}
	if *debug {
		cfg.Debug = true
	}
	if *quiet {
		cfg.Quiet = true
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = "./preservation-downloads"
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = "./retention-reports"
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "/tmp"
	}
	if cfg.DuplicatePolicy == "" {
		cfg.DuplicatePolicy = "rename"
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 2000
	}
	if cfg.S3Prefix == "" {
		cfg.S3Prefix = "preservation-export"
	}
}

// Validate checks required fields and cross-field constraints.
func (c *Config) Validate() error {
	if c.AdminURL == "" {
		return fmt.Errorf("admin-url is required")
	}
	if !strings.HasPrefix(c.AdminURL, "https://") {
		return fmt.Errorf("admin-url must be an https URL, got %q", c.AdminURL)
	}
	if c.TenantID == "" {
		return fmt.Errorf("tenant-id is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client-id is required")
	}

	switch c.AuthMode {
	case "", "devicecode":
	case "secret":
		if c.ClientSecret == "" {
			return fmt.Errorf("client-secret is required when auth-mode is secret")
		}
	case "certificate":
		if c.PfxPath == "" {
			return fmt.Errorf("pfx is required when auth-mode is certificate")
		}
	default:
		return fmt.Errorf("invalid auth-mode %q (use: secret, certificate, devicecode)", c.AuthMode)
	}

	switch c.UploadBackend {
	case "":
	case "azure":
		if c.BlobAccount == "" || c.BlobContainer == "" || c.BlobSASToken == "" {
			return fmt.Errorf("blob-account, blob-container and blob-sas are required when upload-backend is azure")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("s3-bucket is required when upload-backend is s3")
		}
		if c.AWSRegion == "" {
			return fmt.Errorf("aws-region is required when upload-backend is s3")
		}
	default:
		return fmt.Errorf("invalid upload-backend %q (use: azure, s3)", c.UploadBackend)
	}

	switch c.DuplicatePolicy {
	case "skip", "overwrite", "rename":
	default:
		return fmt.Errorf("invalid duplicate-policy %q (use: skip, overwrite, rename)", c.DuplicatePolicy)
	}

	return nil
}

// loadFromYAML loads configuration from a YAML file.
func loadFromYAML(cfg *Config, filepath string) error {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return err
	}

	var yamlCfg struct {
		AdminURL        string `yaml:"admin_url"`
		TenantID        string `yaml:"tenant_id"`
		ClientID        string `yaml:"client_id"`
		AuthMode        string `yaml:"auth_mode"`
		ClientSecret    string `yaml:"client_secret"`
		PfxPath         string `yaml:"pfx_path"`
		PfxPassword     string `yaml:"pfx_password"`
		DownloadDir     string `yaml:"download_dir"`
		ReportDir       string `yaml:"report_dir"`
		LogDir          string `yaml:"log_dir"`
		UploadBackend   string `yaml:"upload_backend"`
		BlobAccount     string `yaml:"blob_account"`
		BlobContainer   string `yaml:"blob_container"`
		BlobSASToken    string `yaml:"blob_sas_token"`
		S3Bucket        string `yaml:"s3_bucket"`
		S3Prefix        string `yaml:"s3_prefix"`
		AWSRegion       string `yaml:"aws_region"`
		DuplicatePolicy string `yaml:"duplicate_policy"`
		PageSize        int    `yaml:"page_size"`
	}

	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return err
	}

	if yamlCfg.AdminURL != "" {
		cfg.AdminURL = yamlCfg.AdminURL
	}
	if yamlCfg.TenantID != "" {
		cfg.TenantID = yamlCfg.TenantID
	}
	if yamlCfg.ClientID != "" {
		cfg.ClientID = yamlCfg.ClientID
	}
	if yamlCfg.AuthMode != "" {
		cfg.AuthMode = yamlCfg.AuthMode
	}
	if yamlCfg.ClientSecret != "" {
		cfg.ClientSecret = yamlCfg.ClientSecret
	}
	if yamlCfg.PfxPath != "" {
		cfg.PfxPath = yamlCfg.PfxPath
	}
	if yamlCfg.PfxPassword != "" {
		cfg.PfxPassword = yamlCfg.PfxPassword
	}
	if yamlCfg.DownloadDir != "" {
		cfg.DownloadDir = yamlCfg.DownloadDir
	}
	if yamlCfg.ReportDir != "" {
		cfg.ReportDir = yamlCfg.ReportDir
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.UploadBackend != "" {
		cfg.UploadBackend = yamlCfg.UploadBackend
	}
	if yamlCfg.BlobAccount != "" {
		cfg.BlobAccount = yamlCfg.BlobAccount
	}
	if yamlCfg.BlobContainer != "" {
		cfg.BlobContainer = yamlCfg.BlobContainer
	}
	if yamlCfg.BlobSASToken != "" {
		cfg.BlobSASToken = yamlCfg.BlobSASToken
	}
	if yamlCfg.S3Bucket != "" {
		cfg.S3Bucket = yamlCfg.S3Bucket
	}
	if yamlCfg.S3Prefix != "" {
		cfg.S3Prefix = yamlCfg.S3Prefix
	}
	if yamlCfg.AWSRegion != "" {
		cfg.AWSRegion = yamlCfg.AWSRegion
	}
	if yamlCfg.DuplicatePolicy != "" {
		cfg.DuplicatePolicy = yamlCfg.DuplicatePolicy
	}
	if yamlCfg.PageSize > 0 {
		cfg.PageSize = yamlCfg.PageSize
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func loadFromEnv(cfg *Config) {
	if val := os.Getenv("SPO_RETENTION_ADMIN_URL"); val != "" {
		cfg.AdminURL = val
	}
	if val := os.Getenv("SPO_RETENTION_TENANT_ID"); val != "" {
		cfg.TenantID = val
	}
	if val := os.Getenv("SPO_RETENTION_CLIENT_ID"); val != "" {
		cfg.ClientID = val
	}
	if val := os.Getenv("SPO_RETENTION_AUTH_MODE"); val != "" {
		cfg.AuthMode = val
	}
	if val := os.Getenv("SPO_RETENTION_CLIENT_SECRET"); val != "" {
		cfg.ClientSecret = val
	}
	if val := os.Getenv("SPO_RETENTION_PFX_PATH"); val != "" {
		cfg.PfxPath = val
	}
	if val := os.Getenv("SPO_RETENTION_PFX_PASSWORD"); val != "" {
		cfg.PfxPassword = val
	}
	if val := os.Getenv("SPO_RETENTION_DOWNLOAD_DIR"); val != "" {
		cfg.DownloadDir = val
	}
	if val := os.Getenv("SPO_RETENTION_REPORT_DIR"); val != "" {
		cfg.ReportDir = val
	}
	if val := os.Getenv("SPO_RETENTION_LOG_DIR"); val != "" {
		cfg.LogDir = val
	}
	if val := os.Getenv("SPO_RETENTION_UPLOAD_BACKEND"); val != "" {
		cfg.UploadBackend = val
	}
	if val := os.Getenv("SPO_RETENTION_BLOB_ACCOUNT"); val != "" {
		cfg.BlobAccount = val
	}
	if val := os.Getenv("SPO_RETENTION_BLOB_CONTAINER"); val != "" {
		cfg.BlobContainer = val
	}
	if val := os.Getenv("SPO_RETENTION_BLOB_SAS_TOKEN"); val != "" {
		cfg.BlobSASToken = val
	}
	if val := os.Getenv("SPO_RETENTION_S3_BUCKET"); val != "" {
		cfg.S3Bucket = val
	}
	if val := os.Getenv("SPO_RETENTION_S3_PREFIX"); val != "" {
		cfg.S3Prefix = val
	}
	if val := os.Getenv("SPO_RETENTION_AWS_REGION"); val != "" {
		cfg.AWSRegion = val
	}
	if val := os.Getenv("SPO_RETENTION_DUPLICATE_POLICY"); val != "" {
		cfg.DuplicatePolicy = val
	}
	if val := os.Getenv("SPO_RETENTION_PAGE_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			cfg.PageSize = size
		}
	}
	if val := os.Getenv("SPO_RETENTION_DEBUG"); val != "" {
		cfg.Debug = (val == "true" || val == "1")
	}
	if val := os.Getenv("SPO_RETENTION_QUIET"); val != "" {
		cfg.Quiet = (val == "true" || val == "1")
	}
}
