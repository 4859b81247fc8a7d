package components

// Plot is the flower's cell in the garden bed, row-major in birth order.
type Plot struct {
	Col, Row int
}

// PlotAt returns the plot of the i-th flower in a bed cols wide.
func PlotAt(i, cols int) Plot {
	if cols < 1 {
		cols = 1
	}
	return Plot{Col: i % cols, Row: i / cols}
}
