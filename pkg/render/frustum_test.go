package render

import (
	"math"
	"testing"

	"github.com/taigrr/stilllife/pkg/math3d"
	"github.com/taigrr/stilllife/pkg/scene"
)

func TestPlaneNormalize(t *testing.T) {
	plane := Plane{Normal: math3d.V3(0, 3, 4), D: 10}
	plane.Normalize()

	if math.Abs(plane.Normal.Len()-1) > 1e-9 {
		t.Errorf("normal length = %v, want 1", plane.Normal.Len())
	}
	if math.Abs(plane.Normal.Y-0.6) > 1e-9 || math.Abs(plane.Normal.Z-0.8) > 1e-9 {
		t.Errorf("normal = %v, want (0, 0.6, 0.8)", plane.Normal)
	}
	if math.Abs(plane.D-2) > 1e-9 {
		t.Errorf("D = %v, want 2", plane.D)
	}
	if d := plane.DistanceToPoint(math3d.V3(0, 0, 5)); math.Abs(d-6) > 1e-9 {
		t.Errorf("distance = %v, want 6", d)
	}
}

func TestAABBTransform(t *testing.T) {
	box := AABB{Min: math3d.V3(-1, -1, -1), Max: math3d.V3(1, 1, 1)}

	t.Run("translation", func(t *testing.T) {
		got := box.Transform(math3d.Translate(math3d.V3(10, 20, 30)))
		if got.Min != math3d.V3(9, 19, 29) || got.Max != math3d.V3(11, 21, 31) {
			t.Errorf("got %v..%v", got.Min, got.Max)
		}
	})

	t.Run("rotation grows the box", func(t *testing.T) {
		got := box.Transform(math3d.Rotate(math3d.Up(), math.Pi/4))
		want := math.Sqrt2
		if math.Abs(got.Max.X-want) > 1e-9 || math.Abs(got.Min.Z+want) > 1e-9 {
			t.Errorf("got %v..%v, want x/z extent ±%v", got.Min, got.Max, want)
		}
		if math.Abs(got.Max.Y-1) > 1e-9 {
			t.Errorf("y extent changed: %v", got.Max.Y)
		}
	})

	if c := box.Transform(math3d.Translate(math3d.V3(1, 2, 3))).Center(); !c.ApproxEqual(math3d.V3(1, 2, 3), 1e-12) {
		t.Errorf("center = %v", c)
	}
}

func TestFrustumPlanesNormalized(t *testing.T) {
	for _, mode := range []scene.ViewMode{scene.Perspective, scene.Orthographic} {
		f := NewFrustumFromMatrix(scene.Projection(mode, 45, 1))
		for i, p := range f.Planes {
			if math.Abs(p.Normal.Len()-1) > 1e-9 {
				t.Errorf("%v plane %d length = %v", mode, i, p.Normal.Len())
			}
		}
	}
}

func TestFrustumContainsPoint(t *testing.T) {
	persp := NewFrustumFromMatrix(scene.Projection(scene.Perspective, 45, 1))
	ortho := NewFrustumFromMatrix(scene.Projection(scene.Orthographic, 45, 1))

	tests := []struct {
		name    string
		f       Frustum
		point   math3d.Vec3
		visible bool
	}{
		{"perspective center", persp, math3d.V3(0, 0, -1), true},
		{"perspective far", persp, math3d.V3(0, 0, -99), true},
		{"perspective behind", persp, math3d.V3(0, 0, 1), false},
		{"perspective too close", persp, math3d.V3(0, 0, -0.01), false},
		{"perspective past far", persp, math3d.V3(0, 0, -101), false},
		{"perspective outside cone", persp, math3d.V3(5, 0, -5), false},
		{"ortho corner", ortho, math3d.V3(4.9, -4.9, -50), true},
		{"ortho outside box", ortho, math3d.V3(5.1, 0, -10), false},
		{"ortho behind", ortho, math3d.V3(0, 0, 1), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.ContainsPoint(tc.point); got != tc.visible {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.visible)
			}
		})
	}
}

func TestFrustumIntersectAABB(t *testing.T) {
	f := NewFrustumFromMatrix(math3d.Perspective(math.Pi/3, 16.0/9.0, 1, 100))

	tests := []struct {
		name    string
		box     AABB
		visible bool
	}{
		{"fully inside", AABB{math3d.V3(-1, -1, -10), math3d.V3(1, 1, -5)}, true},
		{"crosses near plane", AABB{math3d.V3(-1, -1, -2), math3d.V3(1, 1, 2)}, true},
		{"behind camera", AABB{math3d.V3(-1, -1, 5), math3d.V3(1, 1, 10)}, false},
		{"beyond far plane", AABB{math3d.V3(-1, -1, -150), math3d.V3(1, 1, -120)}, false},
		{"far to the right", AABB{math3d.V3(100, -1, -10), math3d.V3(110, 1, -5)}, false},
		{"contains frustum", AABB{math3d.V3(-200, -200, -200), math3d.V3(200, 200, 200)}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.IntersectAABB(tc.box); got != tc.visible {
				t.Errorf("IntersectAABB(%v) = %v, want %v", tc.box, got, tc.visible)
			}
		})
	}
}

func TestFrustumFollowsPreset(t *testing.T) {
	p := scene.Perspective.Preset()
	view := math3d.LookAt(p.Position, p.Position.Add(p.Front), p.Up)
	f := NewFrustumFromMatrix(scene.Projection(scene.Perspective, 45, 1).Mul(view))

	if !f.ContainsPoint(math3d.V3(0, -3, 0)) {
		t.Error("still life should be visible from the startup preset")
	}
	if f.ContainsPoint(math3d.V3(0, 3, 10)) {
		t.Error("point behind the camera should not be visible")
	}
}

func BenchmarkFrustumIntersectAABB(b *testing.B) {
	f := NewFrustumFromMatrix(scene.Projection(scene.Perspective, 45, 1))
	box := AABB{math3d.V3(-1, -1, -10), math3d.V3(1, 1, -5)}

	for b.Loop() {
		_ = f.IntersectAABB(box)
	}
}

func BenchmarkAABBTransform(b *testing.B) {
	box := AABB{math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1)}
	m := scene.Default().Objects[0].Transform.Matrix()

	for b.Loop() {
		_ = box.Transform(m)
	}
}
