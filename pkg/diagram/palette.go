package diagram

// Color is a #rrggbb display color.
type Color string

// DefaultCellColor is used for cells not covered by any worldline.
const DefaultCellColor Color = "#f4f4f4"

// DefaultPalette cycles through visually distinct colors. Consecutive
// worldlines never share a color.
var DefaultPalette = []Color{
	"#1f77b4",
	"#d62728",
	"#2ca02c",
	"#ff7f0e",
	"#9467bd",
	"#8c564b",
	"#e377c2",
	"#17becf",
}

// Option configures a new Diagram.
type Option func(*Diagram)

// WithPalette replaces the worldline palette. An empty palette is ignored.
func WithPalette(p []Color) Option {
	return func(d *Diagram) {
		if len(p) > 0 {
			d.palette = append([]Color(nil), p...)
		}
	}
}

func (d Diagram) colorFor(n int) Color {
	return d.palette[n%len(d.palette)]
}
