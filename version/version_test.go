package version

import (
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"bold label", "# Demo\n\n**Version**: 1.2.3\n", "1.2.3", true},
		{"bold label colon inside", "**Version:** 4.5.6", "4.5.6", true},
		{"plain label prerelease", "Version: 2.0.0-beta.1\n", "2.0.0-beta.1", true},
		{"build metadata", "Version: 1.0.0-rc.1+build.123", "1.0.0-rc.1+build.123", true},
		{"lowercase label", "version: 3.1.4", "3.1.4", true},
		{"heading", "# Demo Skill v0.9.1\n\nbody", "0.9.1", true},
		{"heading level two", "## Release V10.0.0", "10.0.0", true},
		{"bare word", "This is version 7.8.9 of the doc.", "7.8.9", true},
		{"no version", "# Demo\n\nNothing here 1.2 or v3.", "", false},
		{"empty", "", "", false},
		{"two part is not a version", "Version: 1.2", "", false},
		{"trailing hyphen not prerelease", "Version: 1.2.3-", "1.2.3", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Extract(tc.text)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractPriority(t *testing.T) {
	t.Run("bold label beats earlier heading", func(t *testing.T) {
		text := "# Demo v9.9.9\n\nVersion: 8.8.8\n\n**Version**: 1.0.0\n"
		got, ok := Extract(text)
		assert.True(t, ok)
		assert.Equal(t, "1.0.0", got)
	})

	t.Run("plain label beats earlier heading", func(t *testing.T) {
		text := "# Demo v9.9.9\n\nVersion: 2.0.0\n"
		got, _ := Extract(text)
		assert.Equal(t, "2.0.0", got)
	})

	t.Run("heading beats earlier bare word", func(t *testing.T) {
		text := "Requires version 5.0.0 of the runtime.\n\n# Demo v1.1.0\n"
		got, _ := Extract(text)
		assert.Equal(t, "1.1.0", got)
	})

	t.Run("first occurrence of a pattern wins", func(t *testing.T) {
		text := "Version: 1.0.0\nVersion: 2.0.0\n"
		got, _ := Extract(text)
		assert.Equal(t, "1.0.0", got)
	})
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "1.2.3", Sanitize("1.2.3"))
	assert.Equal(t, "1.0.0-beta.1", Sanitize("1.0.0-beta.1"))
	assert.Equal(t, "1.0.0-rc.1-build.5", Sanitize("1.0.0-rc.1+build.5"))
	assert.Equal(t, "a-b-c", Sanitize("a/b\\c"))
}
