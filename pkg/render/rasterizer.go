package render

import (
	"math"

	"github.com/taigrr/stilllife/pkg/math3d"
	"github.com/taigrr/stilllife/pkg/shading"
)

// clipVertex is a vertex stage output: clip-space position plus the
// world-space varyings the fragment stage needs.
type clipVertex struct {
	clip math3d.Vec4
	frag shading.Fragment
}

func lerpVertex(a, b clipVertex, t float64) clipVertex {
	return clipVertex{
		clip: a.clip.Lerp(b.clip, t),
		frag: shading.Fragment{
			Position: a.frag.Position.Lerp(b.frag.Position, t),
			Normal:   a.frag.Normal.Lerp(b.frag.Normal, t),
			UV:       a.frag.UV.Scale(1 - t).Add(b.frag.UV.Scale(t)),
		},
	}
}

// screenVertex is a vertex after perspective divide and viewport mapping.
type screenVertex struct {
	x, y float64 // pixels, y down
	z    float64 // NDC depth in [-1, 1]
	invW float64
	frag shading.Fragment
}

// Clip-space distances to the near (z >= -w) and far (z <= w) planes.
func nearDist(v math3d.Vec4) float64 { return v.Z + v.W }
func farDist(v math3d.Vec4) float64  { return v.W - v.Z }

// clipPolygon keeps the part of poly where dist >= 0 (Sutherland-Hodgman),
// appending the result to out.
func clipPolygon(poly []clipVertex, dist func(math3d.Vec4) float64, out []clipVertex) []clipVertex {
	out = out[:0]
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		da, db := dist(a.clip), dist(b.clip)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			out = append(out, lerpVertex(a, b, da/(da-db)))
		}
	}
	return out
}

// drawTriangle clips tri against the near and far planes and rasterizes
// the resulting convex polygon as a fan.
func (d *Device) drawTriangle(tri [3]clipVertex, shade func(shading.Fragment) math3d.Vec4) {
	var bufA, bufB [8]clipVertex
	poly := clipPolygon(tri[:], nearDist, bufA[:0])
	if len(poly) < 3 {
		return
	}
	poly = clipPolygon(poly, farDist, bufB[:0])
	if len(poly) < 3 {
		return
	}

	var sv [8]screenVertex
	for i, v := range poly {
		sv[i] = d.toScreen(v)
	}
	for i := 1; i+1 < len(poly); i++ {
		if d.Wireframe {
			d.strokeTriangle(sv[0], sv[i], sv[i+1], shade)
			continue
		}
		d.rasterize(sv[0], sv[i], sv[i+1], shade)
	}
}

func (d *Device) toScreen(v clipVertex) screenVertex {
	invW := 1 / v.clip.W
	return screenVertex{
		x:    (v.clip.X*invW + 1) * 0.5 * float64(d.fb.Width),
		y:    (1 - v.clip.Y*invW) * 0.5 * float64(d.fb.Height),
		z:    v.clip.Z * invW,
		invW: invW,
		frag: v.frag,
	}
}

// edgeCoeffs returns A, B, C for edge(x, y) = A*x + B*y + C, positive on the
// left of the edge from (x0, y0) to (x1, y1).
func edgeCoeffs(x0, y0, x1, y1 float64) (a, b, c float64) {
	return y0 - y1, x1 - x0, x0*y1 - x1*y0
}

// rasterize fills a screen triangle with incremental edge functions,
// depth-tests every covered pixel center and shades it with
// perspective-correct varyings. Both windings are drawn.
func (d *Device) rasterize(v0, v1, v2 screenVertex, shade func(shading.Fragment) math3d.Vec4) {
	a0, b0, c0 := edgeCoeffs(v1.x, v1.y, v2.x, v2.y)
	area := a0*v0.x + b0*v0.y + c0
	if area == 0 || math.IsNaN(area) {
		return
	}
	if area < 0 {
		v1, v2 = v2, v1
		a0, b0, c0 = edgeCoeffs(v1.x, v1.y, v2.x, v2.y)
		area = -area
	}
	a1, b1, c1 := edgeCoeffs(v2.x, v2.y, v0.x, v0.y)
	a2, b2, c2 := edgeCoeffs(v0.x, v0.y, v1.x, v1.y)

	fb := d.fb
	minX := max(0, int(math.Floor(min(v0.x, v1.x, v2.x))))
	maxX := min(fb.Width-1, int(math.Ceil(max(v0.x, v1.x, v2.x))))
	minY := max(0, int(math.Floor(min(v0.y, v1.y, v2.y))))
	maxY := min(fb.Height-1, int(math.Ceil(max(v0.y, v1.y, v2.y))))
	if minX > maxX || minY > maxY {
		return
	}
	d.CullingStats.Triangles++

	invArea := 1 / area
	px := float64(minX) + 0.5
	py := float64(minY) + 0.5
	w0Row := a0*px + b0*py + c0
	w1Row := a1*px + b1*py + c1
	w2Row := a2*px + b2*py + c2

	for y := minY; y <= maxY; y++ {
		w0, w1, w2 := w0Row, w1Row, w2Row
		for x := minX; x <= maxX; x++ {
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				l0, l1, l2 := w0*invArea, w1*invArea, w2*invArea
				z := l0*v0.z + l1*v1.z + l2*v2.z
				if fb.testAndSet(x, y, z) {
					frag := interpolate(v0, v1, v2, l0, l1, l2)
					fb.Pixels[y*fb.Width+x] = ToRGBA(shade(frag))
				}
			}
			w0 += a0
			w1 += a1
			w2 += a2
		}
		w0Row += b0
		w1Row += b1
		w2Row += b2
	}
}

// interpolate blends the varyings of a pixel with screen-space barycentric
// weights l0..l2, corrected by 1/w.
func interpolate(v0, v1, v2 screenVertex, l0, l1, l2 float64) shading.Fragment {
	p0, p1, p2 := l0*v0.invW, l1*v1.invW, l2*v2.invW
	s := p0 + p1 + p2
	if s == 0 {
		return v0.frag
	}
	p0, p1, p2 = p0/s, p1/s, p2/s
	return shading.Fragment{
		Position: v0.frag.Position.Scale(p0).Add(v1.frag.Position.Scale(p1)).Add(v2.frag.Position.Scale(p2)),
		Normal:   v0.frag.Normal.Scale(p0).Add(v1.frag.Normal.Scale(p1)).Add(v2.frag.Normal.Scale(p2)),
		UV:       v0.frag.UV.Scale(p0).Add(v1.frag.UV.Scale(p1)).Add(v2.frag.UV.Scale(p2)),
	}
}

// strokeTriangle draws the triangle outline in the color shaded at its
// centroid.
func (d *Device) strokeTriangle(v0, v1, v2 screenVertex, shade func(shading.Fragment) math3d.Vec4) {
	third := 1.0 / 3
	c := ToRGBA(shade(interpolate(v0, v1, v2, third, third, third)))
	pt := func(v screenVertex) (int, int) {
		return int(math.Floor(v.x)), int(math.Floor(v.y))
	}
	x0, y0 := pt(v0)
	x1, y1 := pt(v1)
	x2, y2 := pt(v2)
	d.fb.DrawLine(x0, y0, x1, y1, c)
	d.fb.DrawLine(x1, y1, x2, y2, c)
	d.fb.DrawLine(x2, y2, x0, y0, c)
	d.CullingStats.Triangles++
}
