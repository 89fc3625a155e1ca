package table

import "testing"

func TestVisibleWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"\x1b[1mfoo\x1b[0m", 3},
		{"\x1b[38;5;196mred\x1b[0m!", 4},
		{"日本", 4},
		{"ab\x1b[1", 2},
	}
	for _, tt := range tests {
		if got := VisibleWidth(tt.in); got != tt.want {
			t.Errorf("VisibleWidth(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"\x1b[1mfoo\x1b[0mbarbaz", 4, "\x1b[1mfoo\x1b[0mb"},
		{"\x1b[1mfoobar\x1b[0m", 2, "\x1b[1mfo\x1b[0m"},
		{"short", 10, "short"},
		{"abcdef", 0, ""},
		{"日本語", 5, "日本"},
		{"\x1b[32mup\x1b[0m/\x1b[31mdown\x1b[0m", 4, "\x1b[32mup\x1b[0m/\x1b[31md\x1b[0m"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestPad(t *testing.T) {
	tests := []struct {
		in    string
		width int
		left  bool
		want  string
	}{
		{"ab", 4, true, "ab  "},
		{"ab", 4, false, "  ab"},
		{"\x1b[31mab\x1b[0m", 4, true, "\x1b[31mab\x1b[0m  "},
		{"abcdef", 3, true, "abc"},
	}
	for _, tt := range tests {
		if got := Pad(tt.in, tt.width, tt.left); got != tt.want {
			t.Errorf("Pad(%q, %d, %v) = %q, want %q", tt.in, tt.width, tt.left, got, tt.want)
		}
	}
}
