// Package route computes the cubic Bezier curves drawn for edges.
package route

import (
	"math"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/proofgraph/internal/model"
)

const (
	// Roundness is the vertical control offset used when an edge folds back.
	Roundness = 100

	epsilon = 0.00001
)

// Point is a canvas coordinate.
type Point struct {
	X, Y float64
}

// PointOf converts a block position.
func PointOf(p model.Position) Point {
	return Point{X: p.X, Y: p.Y}
}

// Curve is a single cubic Bezier segment.
type Curve struct {
	Start, C1, C2, End Point
}

// At evaluates the curve at t in [0, 1].
func (c Curve) At(t float64) Point {
	u := 1 - t
	a, b, cc, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*c.Start.X + b*c.C1.X + cc*c.C2.X + d*c.End.X,
		Y: a*c.Start.Y + b*c.C1.Y + cc*c.C2.Y + d*c.End.Y,
	}
}

// SVGPath renders the curve as an SVG path string.
func (c Curve) SVGPath() string {
	var sb strings.Builder
	sb.WriteString("M ")
	writePoint(&sb, c.Start)
	sb.WriteString(" C ")
	writePoint(&sb, c.C1)
	sb.WriteString(", ")
	writePoint(&sb, c.C2)
	sb.WriteString(", ")
	writePoint(&sb, c.End)
	return sb.String()
}

func writePoint(sb *strings.Builder, p Point) {
	sb.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
}

// Path returns the curve from src to dst, where src belongs to a socket
// facing srcDir. Control points sit half the horizontal distance away from
// each end. When the edge would fold back on itself (an output to the right
// of its destination, or an input to its left) the horizontal offsets are
// inverted and the control points are pushed Roundness apart vertically.
func Path(src, dst Point, srcDir model.SocketDirection) Curve {
	dist := (dst.X - src.X) * 0.5
	cpxS, cpxD := dist, -dist
	var cpyS, cpyD float64

	if (src.X > dst.X && srcDir == model.Output) || (src.X < dst.X && srcDir == model.Input) {
		cpxS, cpxD = -cpxS, -cpxD
		// The start control point bends toward the destination's side and
		// the end control point toward the source's side.
		cpyS = sign(dst.Y-src.Y) * Roundness
		cpyD = sign(src.Y-dst.Y) * Roundness
	}

	return Curve{
		Start: src,
		C1:    Point{X: src.X + cpxS, Y: src.Y + cpyS},
		C2:    Point{X: dst.X + cpxD, Y: dst.Y + cpyD},
		End:   dst,
	}
}

// sign is v/|v| with a near-zero denominator substituted, so 0 maps to 0.
func sign(v float64) float64 {
	d := math.Abs(v)
	if d == 0 {
		d = epsilon
	}
	return v / d
}
