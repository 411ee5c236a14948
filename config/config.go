/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/docstore/errors"
	"github.com/suparena/docstore/storagemodels"
)

// Supported backends.
const (
	BackendCosmos   = "cosmos"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Environment variables read by FromEnv.
const (
	EnvBackend          = "DOCSTORE_BACKEND"
	EnvEndpoint         = "DOCSTORE_ENDPOINT"
	EnvAccessKey        = "DOCSTORE_ACCESS_KEY"
	EnvSecretKey        = "DOCSTORE_SECRET_KEY"
	EnvRegion           = "DOCSTORE_REGION"
	EnvDatabase         = "DOCSTORE_DATABASE"
	EnvContainer        = "DOCSTORE_CONTAINER"
	EnvPartitionKeyPath = "DOCSTORE_PARTITION_KEY_PATH"
	EnvLogLevel         = "DOCSTORE_LOG_LEVEL"
	EnvLogFormat        = "DOCSTORE_LOG_FORMAT"
)

const (
	DefaultPartitionKeyPath = "/" + storagemodels.FieldPartitionKey
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
)

// Log configures the zerolog output.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config describes which store to talk to and where the DAO keeps its data.
type Config struct {
	Backend          string `yaml:"backend"`
	Endpoint         string `yaml:"endpoint"`
	AccessKey        string `yaml:"accessKey"`
	SecretKey        string `yaml:"secretKey"`
	Region           string `yaml:"region"`
	Database         string `yaml:"database"`
	Container        string `yaml:"container"`
	PartitionKeyPath string `yaml:"partitionKeyPath"`
	Log              Log    `yaml:"log"`
}

// Load reads a YAML configuration file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment. Variables already set are left alone.
func LoadEnvFile(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// FromEnv builds a configuration from DOCSTORE_* variables.
func FromEnv() *Config {
	return &Config{
		Backend:          os.Getenv(EnvBackend),
		Endpoint:         os.Getenv(EnvEndpoint),
		AccessKey:        os.Getenv(EnvAccessKey),
		SecretKey:        os.Getenv(EnvSecretKey),
		Region:           os.Getenv(EnvRegion),
		Database:         os.Getenv(EnvDatabase),
		Container:        os.Getenv(EnvContainer),
		PartitionKeyPath: os.Getenv(EnvPartitionKeyPath),
		Log: Log{
			Level:  os.Getenv(EnvLogLevel),
			Format: os.Getenv(EnvLogFormat),
		},
	}
}

// Overlay copies every non-empty field of other onto c.
func (c *Config) Overlay(other *Config) {
	if other == nil {
		return
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Backend, other.Backend)
	set(&c.Endpoint, other.Endpoint)
	set(&c.AccessKey, other.AccessKey)
	set(&c.SecretKey, other.SecretKey)
	set(&c.Region, other.Region)
	set(&c.Database, other.Database)
	set(&c.Container, other.Container)
	set(&c.PartitionKeyPath, other.PartitionKeyPath)
	set(&c.Log.Level, other.Log.Level)
	set(&c.Log.Format, other.Log.Format)
}

// Validate fills defaults and checks that the selected backend can be reached.
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendCosmos
	}
	if c.PartitionKeyPath == "" {
		c.PartitionKeyPath = DefaultPartitionKeyPath
	}
	if !strings.HasPrefix(c.PartitionKeyPath, "/") {
		return errors.NewValidationError("partitionKeyPath", "must start with /")
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	switch c.Backend {
	case BackendCosmos:
		if c.Endpoint == "" {
			return errors.NewValidationError("endpoint", "is required for the cosmos backend")
		}
		if c.AccessKey == "" {
			return errors.NewValidationError("accessKey", "is required for the cosmos backend")
		}
	case BackendDynamoDB:
		if c.Region == "" {
			return errors.NewValidationError("region", "is required for the dynamodb backend")
		}
	case BackendMemory:
	default:
		return errors.NewValidationError("backend", fmt.Sprintf("unknown backend %q", c.Backend))
	}

	if c.Database == "" {
		return errors.NewValidationError("database", "is required")
	}
	if c.Container == "" {
		return errors.NewValidationError("container", "is required")
	}
	return nil
}
