package symbol

import (
	"reflect"
	"testing"
)

func TestEmojis(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single", "😀", []string{"😀"}},
		{"two plain", "😀🚀", []string{"😀", "🚀"}},
		{"skin tone", "👍🏽😀", []string{"👍🏽", "😀"}},
		{"zwj sequence", "👨‍👩‍👦🚀", []string{"👨‍👩‍👦", "🚀"}},
		{"variation selector", "❤️🚀", []string{"❤️", "🚀"}},
		{"keycap", "1️⃣2️⃣", []string{"1️⃣", "2️⃣"}},
		{"two flags", "🇺🇸🇫🇷", []string{"🇺🇸", "🇫🇷"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Emojis([]byte(tt.in))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Emojis(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
