package geometry

import (
	"math"
	"strconv"
	"strings"
)

// SVGPoints formats vertices for an SVG points attribute, two decimals max.
func SVGPoints[P Point](pts []P) string {
	var b strings.Builder
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(' ')
		}
		v := vec(p)
		b.WriteString(formatSVG(v.X))
		b.WriteByte(',')
		b.WriteString(formatSVG(v.Y))
	}
	return b.String()
}

// PathD formats vertices as an SVG path, closed with Z when closed is set.
func PathD[P Point](pts []P, closed bool) string {
	if len(pts) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range pts {
		v := vec(p)
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(formatSVG(v.X))
		b.WriteByte(' ')
		b.WriteString(formatSVG(v.Y))
	}
	if closed {
		b.WriteString(" Z")
	}
	return b.String()
}

func formatSVG(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
