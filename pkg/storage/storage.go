// Package storage copies maintenance artifacts to an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
)

const ProviderMinio = "minio"

// Config selects the archive bucket. An empty Endpoint disables archiving.
type Config struct {
	Provider  string `mapstructure:"provider"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseTLS    bool   `mapstructure:"use_tls"`
	BasePath  string `mapstructure:"base_path"`
}

func (c Config) Enabled() bool {
	return c.Endpoint != ""
}

// Archive stores and fetches whole files.
type Archive interface {
	// Upload copies the local file to objectName and returns the full key.
	Upload(ctx context.Context, objectName, localPath string) (string, error)
	// Download copies objectName to localPath.
	Download(ctx context.Context, objectName, localPath string) error
}

// New returns the archive for c, or nil when archiving is disabled.
func New(c Config) (Archive, error) {
	if !c.Enabled() {
		return nil, nil
	}
	switch c.Provider {
	case "", ProviderMinio:
		return newMinio(c)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", c.Provider)
	}
}

// getFullPath joins BasePath and objectName without doubled slashes.
func getFullPath(basePath, objectName string) string {
	basePath = strings.Trim(basePath, "/")
	objectName = strings.TrimPrefix(objectName, "/")
	if basePath == "" {
		return objectName
	}
	return path.Join(basePath, objectName)
}
