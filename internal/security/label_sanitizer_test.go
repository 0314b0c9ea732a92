package security

import "testing"

func TestLabelSanitizer_Clean(t *testing.T) {
	s := NewLabelSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Someone says 'ping'", "Someone says 'ping'"},
		{"タグが除去される", "<b>Free</b> space", "Free space"},
		{"scriptは中身ごと除去される", "Lag<script>alert(1)</script>", "Lag"},
		{"イベント属性付きタグも除去される", `<img src=x onerror="alert(1)">Crash`, "Crash"},
		{"アンパサンドは元に戻る", "Tom & Jerry", "Tom & Jerry"},
		{"空白が正規化される", "  too \n many   spaces ", "too many spaces"},
		{"空文字列", "", ""},
		{"タグのみは空文字列", "<br/>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLabelSanitizer_Idempotent(t *testing.T) {
	s := NewLabelSanitizer()
	inputs := []string{"<i>Mic</i> check", "A &amp; B", "plain"}

	for _, in := range inputs {
		once := s.Clean(in)
		if twice := s.Clean(once); twice != once {
			t.Errorf("Clean is not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}
