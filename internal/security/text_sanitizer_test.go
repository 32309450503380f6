package security

import "testing"

// TestSanitize_StripsTags はタグが除去されテキストのみ残ることを検証する。
func TestSanitize_StripsTags(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "空文字列", input: "", want: ""},
		{name: "プレーンテキスト", input: "taro_123", want: "taro_123"},
		{name: "日本語", input: "山田太郎", want: "山田太郎"},
		{name: "アンパサンドは保持", input: "Tom & Jerry", want: "Tom & Jerry"},
		{name: "太字タグ", input: "<b>taro</b>", want: "taro"},
		{name: "scriptタグは中身ごと除去", input: "<script>alert(1)</script>hanako", want: "hanako"},
		{name: "属性付きタグ", input: `<img src="x" onerror="alert(1)">jiro`, want: "jiro"},
		{name: "前後の空白は除去", input: "  saburo  ", want: "saburo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestContainsMarkup はタグを含む入力のみ検出されることを検証する。
func TestContainsMarkup(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		input string
		want  bool
	}{
		{"taro_123", false},
		{"Tom & Jerry", false},
		{"山田 太郎", false},
		{"<b>taro</b>", true},
		{"<script>alert(1)</script>", true},
		{`"><svg onload=alert(1)>`, true},
	}

	for _, tt := range tests {
		if got := s.ContainsMarkup(tt.input); got != tt.want {
			t.Errorf("ContainsMarkup(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// TestSanitize_Idempotent は同一入力に対して同一出力を返すことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	s := NewTextSanitizer()
	in := "<p>hello <em>world</em></p>"

	first := s.Sanitize(in)
	if second := s.Sanitize(first); second != first {
		t.Errorf("Sanitize not idempotent: %q -> %q", first, second)
	}
}
