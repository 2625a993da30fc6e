package utils

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"frame_00-01-05.jpg", "frame_00-01-05.jpg"},
		{"", "image.jpg"},
		{"   ", "image.jpg"},
		{"../../etc/passwd", "passwd"},
		{`evil".jpg`, "evil.jpg"},
		{"a\r\nSet-Cookie: x.jpg", "aSet-Cookie: x.jpg"},
		{`dir\name.png`, "name.png"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in, "image.jpg"); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
