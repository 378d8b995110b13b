package version

import "testing"

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		date    string
		want    string
	}{
		{
			name:    "development build",
			version: "dev",
			commit:  "none",
			date:    "unknown",
			want:    "dev (development build)",
		},
		{
			name:    "release build",
			version: "v1.2.0",
			commit:  "abc1234",
			date:    "2026-01-15",
			want:    "v1.2.0 (commit: abc1234, built: 2026-01-15)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatVersion(tt.version, tt.commit, tt.date)
			if got != tt.want {
				t.Errorf("FormatVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetVersionComponents(t *testing.T) {
	version, commit, date := GetVersionComponents()
	if version != Version || commit != Commit || date != Date {
		t.Errorf("components do not match package variables: %s %s %s", version, commit, date)
	}
}
