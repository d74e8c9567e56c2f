// Package symbol decodes market symbol bytes into the list of emojis they
// spell. Symbols are UTF-8 concatenations of whole emojis; splitting groups
// each base emoji with its trailing modifiers (ZWJ sequences, variation
// selectors, skin tones, keycaps, flag pairs and tag characters).
package symbol

import "unicode/utf8"

const (
	zwj                = 0x200D
	variationSelector  = 0xFE0F
	combiningKeycap    = 0x20E3
	skinToneFirst      = 0x1F3FB
	skinToneLast       = 0x1F3FF
	regionalFirst      = 0x1F1E6
	regionalLast       = 0x1F1FF
	tagFirst           = 0xE0020
	tagLast            = 0xE007F
)

// Emojis splits raw symbol bytes into one string per emoji.
func Emojis(b []byte) []string {
	var (
		out     []string
		current []byte
		prev    rune
	)

	flush := func() {
		if len(current) > 0 {
			out = append(out, string(current))
			current = nil
		}
	}

	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if joins(r, prev, current) {
			current = append(current, b[:size]...)
		} else {
			flush()
			current = append(current, b[:size]...)
		}
		prev = r
		b = b[size:]
	}
	flush()
	return out
}

// joins reports whether r extends the emoji currently being accumulated
// instead of starting a new one.
func joins(r, prev rune, current []byte) bool {
	if len(current) == 0 {
		return false
	}
	switch {
	case r == zwj, r == variationSelector, r == combiningKeycap:
		return true
	case r >= skinToneFirst && r <= skinToneLast:
		return true
	case r >= tagFirst && r <= tagLast:
		return true
	case prev == zwj:
		return true
	case r >= regionalFirst && r <= regionalLast:
		// Regional indicators pair up into flags.
		return prev >= regionalFirst && prev <= regionalLast && !pairedFlag(current)
	}
	return false
}

// pairedFlag reports whether current already holds a complete two-rune flag.
func pairedFlag(current []byte) bool {
	n := 0
	for len(current) > 0 {
		r, size := utf8.DecodeRune(current)
		if r >= regionalFirst && r <= regionalLast {
			n++
		}
		current = current[size:]
	}
	return n >= 2
}
