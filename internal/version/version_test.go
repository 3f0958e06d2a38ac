package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		built   string
		want    string
	}{
		{"bare", "dev", "unknown", "unknown", "dev"},
		{"commit shortened", "v0.3.0", "1a2b3c4d5e6f", "unknown", "v0.3.0 (commit 1a2b3c4)"},
		{"all metadata", "v0.3.0", "abc", "2026-01-02", "v0.3.0 (commit abc, built 2026-01-02)"},
		{"empty metadata", "v1.0.0", "", "", "v1.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prevV, prevC, prevB := Version, GitCommit, BuildTime
			t.Cleanup(func() { Version, GitCommit, BuildTime = prevV, prevC, prevB })

			Version, GitCommit, BuildTime = tt.version, tt.commit, tt.built
			require.Equal(t, tt.want, String())
		})
	}
}
