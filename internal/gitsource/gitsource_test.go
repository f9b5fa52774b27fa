package gitsource

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsURL(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"https://github.com/a/notes.git", true},
		{"http://example.com/notes", true},
		{"ssh://git@example.com/notes.git", true},
		{"git@github.com:a/notes.git", true},
		{"./notes", false},
		{"/home/me/notes", false},
		{"notes", false},
		{"https://", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, IsURL(tt.src))
		})
	}
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://github.com/a/notes.git", filepath.Join("repos", "github.com", "a", "notes"), false},
		{"https://example.com/team/notes", filepath.Join("repos", "example.com", "team", "notes"), false},
		{"git@github.com:a/notes.git", filepath.Join("repos", "github.com", "a", "notes"), false},
		{"https://example.com/../../etc", "", true},
		{"not a url", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := LocalPath("repos", tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyncRejectsNonRepository(t *testing.T) {
	err := Sync(context.Background(), "https://example.com/notes.git", t.TempDir(), nil)
	assert.ErrorContains(t, err, "failed to open existing repo")
}
