package instrumentation

import "testing"

func TestNormalizeStatusLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"queued", "queued"},
		{"Delivered", "delivered"},
		{" sent ", "sent"},
		{"undelivered", "undelivered"},
		{"failed", "failed"},
		{"", "unknown"},
		{"partially_delivered", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeStatusLabel(tt.in); got != tt.want {
				t.Errorf("NormalizeStatusLabel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	for _, p := range []string{"/mcp", "/healthz", "/readyz", "/healthz/detailed", "/metrics"} {
		if got := NormalizePath(p); got != p {
			t.Errorf("NormalizePath(%q) = %q, want unchanged", p, got)
		}
	}
	if got := NormalizePath("/mcp/../etc/passwd"); got != "other" {
		t.Errorf("NormalizePath() = %q, want other", got)
	}
}
