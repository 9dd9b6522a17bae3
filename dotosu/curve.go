package dotosu

import "math"

const (
	bezierToleranceSq = 0.25 * 0.25
	arcTolerance      = 0.10
	catmullDetail     = 50
)

// Point is a playfield position with sub-pixel precision.
type Point struct{ X, Y float64 }

// Curve flattens the path into a polyline starting at the slider head.
// The result is not trimmed to the slider's pixel length.
func (p SliderPath) Curve() []Point {
	var poly []Point
	add := func(pts ...Point) {
		for _, v := range pts {
			if n := len(poly); n == 0 || !almostEqual(poly[n-1], v) {
				poly = append(poly, v)
			}
		}
	}

	switch {
	case len(p.Segments) == 0:
		return nil
	case p.Type == CurveLinear:
		add(toPoints(p.Segments[0])...)
	case p.Type == CurveCatmull:
		add(approximateCatmull(toPoints(p.Segments[0]))...)
	case p.Type == CurvePerfect && len(p.Segments) == 1 && len(p.Segments[0]) == 3:
		v := toPoints(p.Segments[0])
		add(approximateArc(v[0], v[1], v[2])...)
	default:
		for _, seg := range p.Segments {
			add(approximateBezier(toPoints(seg))...)
		}
	}
	return dropCollinear(poly)
}

// PointAt walks distance pixels along poly. Past the end it keeps going in
// the direction of the last step.
func PointAt(poly []Point, distance float64) Point {
	switch len(poly) {
	case 0:
		return Point{}
	case 1:
		return poly[0]
	}
	for i := 1; i < len(poly); i++ {
		step := sub(poly[i], poly[i-1])
		l := math.Hypot(step.X, step.Y)
		if distance <= l {
			return lerp(poly[i-1], step, distance, l)
		}
		distance -= l
	}
	last := poly[len(poly)-1]
	step := sub(last, poly[len(poly)-2])
	return lerp(last, step, distance, math.Hypot(step.X, step.Y))
}

// EndPosition is where the slider finishes: its head after an even number
// of slides, otherwise Length pixels along the curve.
func (s Slider) EndPosition() Point {
	head := Point{float64(s.Position.X), float64(s.Position.Y)}
	if s.Slides%2 == 0 {
		return head
	}
	poly := s.Path.Curve()
	if len(poly) == 0 {
		return head
	}
	return PointAt(poly, s.Length)
}

func lerp(from, step Point, distance, length float64) Point {
	if length == 0 {
		return from
	}
	return Point{from.X + step.X*distance/length, from.Y + step.Y*distance/length}
}

// approximateBezier subdivides until every piece is flat within tolerance
// and emits the start of each flat piece plus the final control point.
func approximateBezier(cp []Point) []Point {
	if len(cp) == 0 {
		return nil
	}
	var out []Point
	stack := [][]Point{cp}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if bezierFlat(cur) {
			out = append(out, cur[0])
			continue
		}
		l, r := bezierSubdivide(cur)
		stack = append(stack, r, l)
	}
	return append(out, cp[len(cp)-1])
}

func bezierFlat(cp []Point) bool {
	for i := 1; i < len(cp)-1; i++ {
		dx := cp[i-1].X - 2*cp[i].X + cp[i+1].X
		dy := cp[i-1].Y - 2*cp[i].Y + cp[i+1].Y
		if dx*dx+dy*dy > bezierToleranceSq {
			return false
		}
	}
	return true
}

// bezierSubdivide splits cp at t=0.5 with de Casteljau's algorithm.
func bezierSubdivide(cp []Point) (left, right []Point) {
	n := len(cp)
	left = make([]Point, n)
	right = make([]Point, n)
	row := append([]Point(nil), cp...)
	for r := 0; r < n; r++ {
		left[r] = row[0]
		right[n-1-r] = row[len(row)-1]
		next := make([]Point, len(row)-1)
		for i := range next {
			next[i] = Point{(row[i].X + row[i+1].X) / 2, (row[i].Y + row[i+1].Y) / 2}
		}
		row = next
	}
	return left, right
}

func approximateCatmull(pts []Point) []Point {
	n := len(pts)
	if n < 2 {
		return pts
	}
	out := make([]Point, 0, (n-1)*catmullDetail+1)
	out = append(out, pts[0])
	for i := 0; i < n-1; i++ {
		p0 := pts[max(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[min(i+2, n-1)]
		for s := 1; s <= catmullDetail; s++ {
			out = append(out, catmullPoint(p0, p1, p2, p3, float64(s)/catmullDetail))
		}
	}
	return out
}

func catmullPoint(p0, p1, p2, p3 Point, t float64) Point {
	t2 := t * t
	t3 := t2 * t
	return Point{
		X: 0.5 * (2*p1.X + (-p0.X+p2.X)*t + (2*p0.X-5*p1.X+4*p2.X-p3.X)*t2 + (-p0.X+3*p1.X-3*p2.X+p3.X)*t3),
		Y: 0.5 * (2*p1.Y + (-p0.Y+p2.Y)*t + (2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*t2 + (-p0.Y+3*p1.Y-3*p2.Y+p3.Y)*t3),
	}
}

// approximateArc draws the circle through p1, p2 and p3 from p1 to p3.
// Collinear points become a straight line.
func approximateArc(p1, p2, p3 Point) []Point {
	c, ok := circumcenter(p1, p2, p3)
	if !ok {
		return []Point{p1, p3}
	}
	r := math.Hypot(p1.X-c.X, p1.Y-c.Y)
	a1 := math.Atan2(p1.Y-c.Y, p1.X-c.X)
	a3 := math.Atan2(p3.Y-c.Y, p3.X-c.X)

	dir := 1.0
	if cross(sub(p2, p1), sub(p3, p2)) < 0 {
		dir = -1.0
	}
	sweep := angleDiff(a1, a3, dir)

	step := 2 * math.Acos(clamp(1-arcTolerance/r, -1, 1))
	if step <= 0 || math.IsNaN(step) || step > math.Pi {
		step = math.Pi
	}
	steps := max(int(math.Ceil(math.Abs(sweep)/step)), 2)
	step = sweep / float64(steps)

	out := make([]Point, 0, steps+1)
	out = append(out, p1)
	for i := 1; i < steps; i++ {
		a := a1 + float64(i)*step
		out = append(out, Point{c.X + math.Cos(a)*r, c.Y + math.Sin(a)*r})
	}
	return append(out, p3)
}

func circumcenter(a, b, c Point) (Point, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-8 {
		return Point{}, false
	}
	a2 := a.X*a.X + a.Y*a.Y
	b2 := b.X*b.X + b.Y*b.Y
	c2 := c.X*c.X + c.Y*c.Y
	return Point{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}

// angleDiff is the signed sweep from start to end going in dir.
func angleDiff(start, end, dir float64) float64 {
	d := math.Remainder(end-start, 2*math.Pi)
	if dir < 0 && d > 0 {
		d -= 2 * math.Pi
	} else if dir > 0 && d < 0 {
		d += 2 * math.Pi
	}
	return d
}

func dropCollinear(pts []Point) []Point {
	if len(pts) <= 2 {
		return pts
	}
	out := []Point{pts[0]}
	for i := 1; i < len(pts)-1; i++ {
		a, b, c := out[len(out)-1], pts[i], pts[i+1]
		if almostEqual(a, b) {
			continue
		}
		ab, bc := sub(b, a), sub(c, b)
		if math.Abs(cross(ab, bc)) < 1e-7 && ab.X*bc.X+ab.Y*bc.Y > 0 {
			continue
		}
		out = append(out, b)
	}
	if last := pts[len(pts)-1]; !almostEqual(out[len(out)-1], last) {
		out = append(out, last)
	}
	return out
}

func toPoints(v []Vec2) []Point {
	out := make([]Point, len(v))
	for i, p := range v {
		out[i] = Point{float64(p.X), float64(p.Y)}
	}
	return out
}

func sub(a, b Point) Point        { return Point{a.X - b.X, a.Y - b.Y} }
func cross(a, b Point) float64    { return a.X*b.Y - a.Y*b.X }
func almostEqual(a, b Point) bool { return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9 }

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
