package overlay

import (
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/przemekoduje/overo/internal/geometry"
	"github.com/przemekoduje/overo/internal/model"
)

// PinRadius is the radius of the centroid pin, in box units.
const PinRadius = 12

// Scene is everything needed to draw one overlay: shapes in box space and
// the popover of the open hotspot, if any.
type Scene struct {
	Width   float64
	Height  float64
	Shapes  []Shape
	OpenID  string
	Popover *Popover
}

// Popover is the info card of the open hotspot.
type Popover struct {
	Hotspot model.Hotspot
	At      geometry.PixelPoint
	LeftPct float64
	TopPct  float64
}

// NewScene lays out hotspots in a w x h box with focus deciding which one is
// open. focus may be nil.
func NewScene(hotspots []model.Hotspot, focus *Focus, w, h float64) (Scene, error) {
	if w <= 0 || h <= 0 {
		return Scene{}, fmt.Errorf("scene %vx%v: %w", w, h, geometry.ErrEmptySize)
	}
	shapes, err := Layout(hotspots, w, h)
	if err != nil {
		return Scene{}, err
	}
	sc := Scene{Width: w, Height: h, Shapes: shapes}
	if focus == nil {
		return sc, nil
	}
	if a, ok := focus.Active(); ok {
		sc.OpenID = a.ID
		for _, s := range shapes {
			if s.Hotspot.ID != a.ID {
				continue
			}
			x, y := a.Percent()
			sc.Popover = &Popover{Hotspot: s.Hotspot, At: a.At(w, h), LeftPct: x, TopPct: y}
		}
	}
	return sc, nil
}

const svgTemplate = `<svg class="lookbook__overlay" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 {{num .Width}} {{num .Height}}" preserveAspectRatio="none">
{{- range .Shapes}}
<g class="poly{{if eq .Hotspot.ID $.OpenID}} is-active{{end}}" data-id="{{.Hotspot.ID}}" role="button" tabindex="0" aria-label="{{label .Hotspot}}">
<polygon class="poly__shape" points="{{points .Points}}"/>
<circle class="poly__pin" r="{{pin}}" cx="{{num .Centroid.X}}" cy="{{num .Centroid.Y}}"/>
</g>
{{- end}}
</svg>
`

var svgTmpl = template.Must(template.New("overlay").Funcs(template.FuncMap{
	"num": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
	"points": func(pts []geometry.PixelPoint) string {
		return geometry.SVGPoints(pts)
	},
	"label": Label,
	"pin":   func() int { return PinRadius },
}).Parse(svgTemplate))

// RenderSVG writes the overlay markup of sc. The viewBox is the rendered box
// and aspect ratio is not preserved, so the overlay stretches exactly like
// the image beneath it.
func RenderSVG(w io.Writer, sc Scene) error {
	if err := svgTmpl.Execute(w, sc); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	return nil
}
