package scraper

import (
	"encoding/json"
	"strconv"
	"strings"
)

// decodeJSONLD parses the body of a ld+json script. Shops wrap the payload in
// all sorts of ways, so several strategies are tried: direct parse, first {
// or [ to the matching last bracket, and stripping HTML comment or CDATA
// wrappers.
func decodeJSONLD(text string) (any, bool) {
	text = strings.TrimSpace(text)

	// Strategy 1: direct parse
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, true
	}

	// Strategy 2: strip wrappers
	for _, w := range [][2]string{{"<!--", "-->"}, {"//<![CDATA[", "//]]>"}, {"<![CDATA[", "]]>"}} {
		if s, ok := strings.CutPrefix(text, w[0]); ok {
			s, _ = strings.CutSuffix(strings.TrimSpace(s), w[1])
			if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &v); err == nil {
				return v, true
			}
		}
	}

	// Strategy 3: first bracket to last bracket
	for _, br := range [][2]string{{"{", "}"}, {"[", "]"}} {
		if start := strings.Index(text, br[0]); start >= 0 {
			if end := strings.LastIndex(text, br[1]); end > start {
				if err := json.Unmarshal([]byte(text[start:end+1]), &v); err == nil {
					return v, true
				}
			}
		}
	}

	return nil, false
}

// findProduct walks a decoded JSON-LD value (object, array or @graph) and
// returns the first node typed Product.
func findProduct(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if p, ok := findProduct(item); ok {
				return p, true
			}
		}
	case map[string]any:
		if hasType(t["@type"], "Product") {
			return t, true
		}
		if g, ok := t["@graph"]; ok {
			return findProduct(g)
		}
	}
	return nil, false
}

func hasType(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return t == want || strings.HasSuffix(t, "/"+want)
	case []any:
		for _, s := range t {
			if hasType(s, want) {
				return true
			}
		}
	}
	return false
}

// text returns a string field, also accepting numbers and {"name": ...}
// objects, which is how brand and price commonly appear.
func text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		return text(t["name"])
	case []any:
		if len(t) > 0 {
			return text(t[0])
		}
	}
	return ""
}

// offer returns the first offer of a product node.
func offer(p map[string]any) map[string]any {
	switch t := p["offers"].(type) {
	case map[string]any:
		return t
	case []any:
		for _, o := range t {
			if m, ok := o.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}
