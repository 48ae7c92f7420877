package timeline

// colorSequence is the series palette used for projects, cycled in order.
var colorSequence = []string{
	"#FFB347", "#AEC6CF", "#77DD77", "#CBAACB", "#FFD1DC",
	"#FDFD96", "#B39EB5", "#FF6961", "#03C03C", "#779ECB",
}

// Palette hands out series colours to projects in first-seen order.
type Palette struct {
	assigned map[string]string
}

func NewPalette() *Palette {
	return &Palette{assigned: make(map[string]string)}
}

// Color returns the colour of project, assigning the next one on first use.
func (p *Palette) Color(project string) string {
	if c, ok := p.assigned[project]; ok {
		return c
	}
	c := colorSequence[len(p.assigned)%len(colorSequence)]
	p.assigned[project] = c
	return c
}
