package render

import (
	"image/color"
	"strconv"
	"strings"
)

// parseColor understands the colour strings elements carry: #rgb, #rrggbb,
// #rrggbbaa, rgb(), rgba() and "transparent". ok is false for anything else.
func parseColor(s string) (c color.NRGBA, ok bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "transparent":
		return color.NRGBA{}, true
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		return parseFunc(s[5:len(s)-1], 4)
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		return parseFunc(s[4:len(s)-1], 3)
	}
	return color.NRGBA{}, false
}

func parseHex(h string) (color.NRGBA, bool) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

func parseFunc(args string, n int) (color.NRGBA, bool) {
	parts := strings.Split(args, ",")
	if len(parts) != n {
		return color.NRGBA{}, false
	}
	var ch [4]uint8
	ch[3] = 255
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return color.NRGBA{}, false
		}
		if i == 3 {
			f *= 255
		}
		if f < 0 {
			f = 0
		}
		if f > 255 {
			f = 255
		}
		ch[i] = uint8(f + 0.5)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, true
}
