package cvss

import "testing"

func TestBaseScore(t *testing.T) {
	tests := []struct {
		name   string
		vector string
		want   float64
	}{
		{
			name:   "critical RCE unchanged scope",
			vector: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
			want:   9.8,
		},
		{
			name:   "reflected XSS changed scope",
			vector: "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N",
			want:   6.1,
		},
		{
			name:   "info disclosure with low privileges",
			vector: "CVSS:3.1/AV:N/AC:L/PR:L/UI:N/S:U/C:H/I:N/A:N",
			want:   6.5,
		},
		{
			name:   "high complexity RCE",
			vector: "CVSS:3.1/AV:N/AC:H/PR:N/UI:N/S:U/C:H/I:H/A:H",
			want:   8.1,
		},
		{
			name:   "no impact scores zero",
			vector: "CVSS:3.1/AV:L/AC:H/PR:H/UI:R/S:U/C:N/I:N/A:N",
			want:   0,
		},
		{
			name:   "v3.0 prefix accepted",
			vector: "CVSS:3.0/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
			want:   9.8,
		},
		{
			name:   "v2 vector rejected",
			vector: "AV:N/AC:L/Au:N/C:P/I:P/A:P",
			want:   0,
		},
		{
			name:   "garbage rejected",
			vector: "not a vector",
			want:   0,
		},
		{
			name:   "empty rejected",
			vector: "",
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BaseScore(tt.vector)
			if got != tt.want {
				t.Errorf("BaseScore(%q) = %v, want %v", tt.vector, got, tt.want)
			}
		})
	}
}

func TestBaseScoreNeverExceedsTen(t *testing.T) {
	// Worst case on every metric, scope changed.
	got := BaseScore("CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H")
	if got != 10.0 {
		t.Errorf("expected worst-case vector to cap at 10.0, got %v", got)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{9.8, "CRITICAL"},
		{9.0, "CRITICAL"},
		{8.9, "HIGH"},
		{7.0, "HIGH"},
		{6.9, "MEDIUM"},
		{4.0, "MEDIUM"},
		{3.9, "LOW"},
		{0.1, "LOW"},
		{0, "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := Level(tt.score); got != tt.want {
			t.Errorf("Level(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
