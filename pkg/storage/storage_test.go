package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFullPath(t *testing.T) {
	tests := []struct {
		base, name, want string
	}{
		{"", "backup.sql", "backup.sql"},
		{"backups", "backup.sql", "backups/backup.sql"},
		{"/backups/", "/backup.sql", "backups/backup.sql"},
		{"a/b", "c/backup.sql", "a/b/c/backup.sql"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, getFullPath(tt.base, tt.name))
	}
}

func TestNew(t *testing.T) {
	a, err := New(Config{})
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = New(Config{Endpoint: "localhost:9000", Bucket: "squadio", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	_, ok := a.(*MinioStorage)
	assert.True(t, ok)

	_, err = New(Config{Provider: "ftp", Endpoint: "localhost"})
	assert.Error(t, err)
}
