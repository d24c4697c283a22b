package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// Polygon is an ordered list of normalized vertices. Its String form is the
// wire format shared by authoring and viewing: "x1,y1 x2,y2 ... xn,yn".
type Polygon []NormalizedPoint

// ParsePolygon decodes the wire format. Every whitespace-separated token must
// be exactly two decimal integers joined by a comma, each within [0,1000].
// Nothing is silently dropped: the first bad token fails the whole string.
func ParsePolygon(s string) (Polygon, error) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty string", ErrFormat)
	}

	poly := make(Polygon, 0, len(tokens))
	for i, tok := range tokens {
		xs, ys, ok := strings.Cut(tok, ",")
		if !ok {
			return nil, fmt.Errorf("%w: token %d %q has no comma", ErrFormat, i, tok)
		}
		x, err := parseCoord(xs)
		if err != nil {
			return nil, fmt.Errorf("token %d %q: %w", i, tok, err)
		}
		y, err := parseCoord(ys)
		if err != nil {
			return nil, fmt.Errorf("token %d %q: %w", i, tok, err)
		}
		poly = append(poly, NormalizedPoint{X: x, Y: y})
	}
	return poly, nil
}

// parseCoord accepts plain base-10 integers only. Signs other than a leading
// minus, fractions, exponents and radix prefixes are format errors.
func parseCoord(s string) (float64, error) {
	if s == "" || s[0] == '+' {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrFormat, s)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrFormat, s)
	}
	if v < 0 || v > Scale {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, v)
	}
	return float64(v), nil
}

// String encodes the polygon in the wire format.
func (p Polygon) String() string {
	var b strings.Builder
	for i, pt := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(pt.X, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(pt.Y, 'f', -1, 64))
	}
	return b.String()
}

// Validate checks that the polygon describes a closable shape.
func (p Polygon) Validate() error {
	if len(p) < 3 {
		return fmt.Errorf("%w: got %d", ErrTooFewPoints, len(p))
	}
	return nil
}

// ValidatePoints parses s and checks it is a closable shape.
func ValidatePoints(s string) (Polygon, error) {
	poly, err := ParsePolygon(s)
	if err != nil {
		return nil, err
	}
	if err := poly.Validate(); err != nil {
		return nil, err
	}
	return poly, nil
}
