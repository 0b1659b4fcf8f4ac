package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/radiance/internal/engine/lighting"
	"github.com/Faultbox/radiance/internal/engine/texture"
)

func quad(material uint32) *MeshData {
	return &MeshData{
		Positions:  []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Normals:    []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		TexCoords:  []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Indices:    []uint32{0, 1, 2, 0, 2, 3},
		MaterialID: material,
	}
}

func TestAddEntityRegistersWithModel(t *testing.T) {
	s := New()
	m := s.AddModel("quad", quad(0))

	a, err := s.AddEntity(NewEntity(m, mgl32.Vec3{1, 0, 0}))
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	b, err := s.AddEntity(Entity{Model: m, Parent: NoParent})
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}

	if got := s.Models[m].Entities; len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("model entities: got %v", got)
	}
	if s.Entities[b].Scale != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("zero scale should default to unit, got %v", s.Entities[b].Scale)
	}
	if _, err := s.AddEntity(NewEntity(5, mgl32.Vec3{})); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestWorldPositionInheritsParentOffsets(t *testing.T) {
	s := New()
	m := s.AddModel("quad", quad(0))
	root, _ := s.AddEntity(NewEntity(m, mgl32.Vec3{10, 0, 0}))

	child := NewEntity(m, mgl32.Vec3{0, 2, 0})
	child.Parent = root
	c, err := s.AddEntity(child)
	if err != nil {
		t.Fatalf("AddEntity child: %v", err)
	}
	grand := NewEntity(m, mgl32.Vec3{0, 0, 3})
	grand.Parent = c
	g, _ := s.AddEntity(grand)

	pos, err := s.WorldPosition(g)
	if err != nil {
		t.Fatalf("WorldPosition: %v", err)
	}
	if pos != (mgl32.Vec3{10, 2, 3}) {
		t.Errorf("world position: got %v, want [10 2 3]", pos)
	}

	all, err := s.WorldTransforms()
	if err != nil {
		t.Fatalf("WorldTransforms: %v", err)
	}
	single, _ := s.WorldTransform(g)
	if !all[g].ApproxEqual(single) {
		t.Errorf("batch and single transforms differ:\n%v\n%v", all[g], single)
	}
	if got := all[g].Col(3).Vec3(); got != (mgl32.Vec3{10, 2, 3}) {
		t.Errorf("translation column: got %v", got)
	}
}

func TestLocalMatrixOrder(t *testing.T) {
	e := NewEntity(0, mgl32.Vec3{})
	e.Rotation = mgl32.Vec3{0, 90, 0}
	e.Scale = mgl32.Vec3{2, 2, 2}

	// Scale is applied first: +X becomes (2,0,0), then a 90 degree yaw maps it to -Z.
	p := e.LocalMatrix(mgl32.Vec3{1, 0, 0}).Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	want := mgl32.Vec3{1, 0, -2}
	if !p.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("got %v, want %v", p, want)
	}
}

func TestSetParentRejectsCycle(t *testing.T) {
	s := New()
	m := s.AddModel("quad", quad(0))
	a, _ := s.AddEntity(NewEntity(m, mgl32.Vec3{}))
	b, _ := s.AddEntity(NewEntity(m, mgl32.Vec3{}))

	if err := s.SetParent(b, a); err != nil {
		t.Fatalf("SetParent: %v", err)
	}
	if err := s.SetParent(a, b); !errors.Is(err, ErrParentCycle) {
		t.Errorf("got %v, want ErrParentCycle", err)
	}
	if err := s.SetParent(a, a); !errors.Is(err, ErrParentCycle) {
		t.Errorf("self parent: got %v, want ErrParentCycle", err)
	}
	if err := s.SetParent(a, 9); !errors.Is(err, ErrNoEntity) {
		t.Errorf("got %v, want ErrNoEntity", err)
	}
}

func TestWorldTransformsDetectsCycle(t *testing.T) {
	s := New()
	m := s.AddModel("quad", quad(0))
	a, _ := s.AddEntity(NewEntity(m, mgl32.Vec3{}))
	b, _ := s.AddEntity(NewEntity(m, mgl32.Vec3{}))

	// Bypass SetParent to simulate corrupted data.
	s.Entities[a].Parent = b
	s.Entities[b].Parent = a

	if _, err := s.WorldTransforms(); !errors.Is(err, ErrParentCycle) {
		t.Errorf("WorldTransforms: got %v, want ErrParentCycle", err)
	}
	if _, err := s.WorldPosition(a); !errors.Is(err, ErrParentCycle) {
		t.Errorf("WorldPosition: got %v, want ErrParentCycle", err)
	}
}

func TestTopologicalOrderParentsFirst(t *testing.T) {
	s := New()
	m := s.AddModel("quad", quad(0))
	for i := 0; i < 4; i++ {
		s.AddEntity(NewEntity(m, mgl32.Vec3{}))
	}
	// 0 <- 3 <- 1, 2 root.
	s.SetParent(3, 0)
	s.SetParent(1, 3)

	order, err := s.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	pos := make(map[EntityIndex]int)
	for i, e := range order {
		pos[e] = i
	}
	if len(order) != 4 {
		t.Fatalf("order length %d", len(order))
	}
	if pos[0] > pos[3] || pos[3] > pos[1] {
		t.Errorf("parents must precede children: %v", order)
	}
}

func TestRemoveEntityDetachesChildren(t *testing.T) {
	s := New()
	m := s.AddModel("quad", quad(0))
	root, _ := s.AddEntity(NewEntity(m, mgl32.Vec3{5, 0, 0}))
	other, _ := s.AddEntity(NewEntity(m, mgl32.Vec3{}))
	child := NewEntity(m, mgl32.Vec3{1, 1, 0})
	child.Parent = root
	c, _ := s.AddEntity(child)
	_ = other

	if err := s.RemoveEntity(root); err != nil {
		t.Fatalf("RemoveEntity: %v", err)
	}
	if len(s.Entities) != 2 {
		t.Fatalf("entities: got %d", len(s.Entities))
	}
	moved := s.Entities[c-1]
	if moved.Parent != NoParent || moved.Position != (mgl32.Vec3{6, 1, 0}) {
		t.Errorf("child should keep world position as root: %+v", moved)
	}
	if got := s.Models[m].Entities; len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("model entities not reindexed: %v", got)
	}
	if err := s.RemoveEntity(7); !errors.Is(err, ErrNoEntity) {
		t.Errorf("got %v, want ErrNoEntity", err)
	}
}

func TestUpdateReportsMovedAndDescendants(t *testing.T) {
	s := New()
	m := s.AddModel("quad", quad(0))
	mover := NewEntity(m, mgl32.Vec3{})
	mover.Movement = &MovementController{Axis: mgl32.Vec3{0, 1, 0}, Amplitude: 2, Speed: 1}
	p, _ := s.AddEntity(mover)
	s.AddEntity(NewEntity(m, mgl32.Vec3{3, 0, 0}))
	child := NewEntity(m, mgl32.Vec3{0, 0, 1})
	child.Parent = p
	c, _ := s.AddEntity(child)

	moved := s.Update(0.5)
	if len(moved) != 2 || moved[0] != p || moved[1] != c {
		t.Fatalf("moved: got %v, want [%d %d]", moved, p, c)
	}
	if y := s.Entities[p].Position.Y(); y <= 0 || y > 2 {
		t.Errorf("oscillation out of range: %f", y)
	}
	if x := s.Entities[p].Position.X(); x != 0 {
		t.Errorf("movement left its axis: x=%f", x)
	}
}

func TestMovementZeroAxisStaysPut(t *testing.T) {
	e := NewEntity(0, mgl32.Vec3{1, 2, 3})
	e.Movement = &MovementController{Amplitude: 2, Speed: 1}
	if e.update(0.5) {
		t.Error("zero-axis movement reported a change")
	}
	if e.Position != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("position: got %v, want [1 2 3]", e.Position)
	}
}

func TestUpdateWithDanglingParent(t *testing.T) {
	s := New()
	m := s.AddModel("quad", quad(0))
	mover := NewEntity(m, mgl32.Vec3{})
	mover.Spin = &RotationController{DegreesPerSecond: mgl32.Vec3{0, 10, 0}}
	p, _ := s.AddEntity(mover)
	orphan, _ := s.AddEntity(NewEntity(m, mgl32.Vec3{}))
	s.Entities[orphan].Parent = 42

	moved := s.Update(1)
	if len(moved) != 1 || moved[0] != p {
		t.Errorf("moved: got %v, want [%d]", moved, p)
	}
	if d := s.Descendants(p); len(d) != 0 {
		t.Errorf("descendants: got %v, want none", d)
	}
}

func TestRotationControllerWraps(t *testing.T) {
	e := NewEntity(0, mgl32.Vec3{})
	e.Spin = &RotationController{DegreesPerSecond: mgl32.Vec3{0, 100, 0}}
	for i := 0; i < 5; i++ {
		e.update(1)
	}
	if y := e.Rotation.Y(); y != 140 {
		t.Errorf("rotation: got %f, want 140", y)
	}
}

func TestResolveMaterialsFallback(t *testing.T) {
	s := New()
	s.AddMaterial(NewMaterial("default"))
	s.AddModel("a", quad(0), quad(4))

	if n := s.ResolveMaterials(0); n != 1 {
		t.Errorf("remapped %d meshes, want 1", n)
	}
	if s.Models[0].Meshes[1].MaterialID != 0 {
		t.Error("out-of-range material not remapped to fallback")
	}
}

func TestMaterialSampling(t *testing.T) {
	m := NewMaterial("brick")
	tex := &texture.Texture{ID: 3}

	if prev := m.SetTexture(SlotAlbedo, tex); prev != nil {
		t.Errorf("unexpected previous texture %v", prev)
	}
	if !m.HasTexture.Has(SlotAlbedo) || !m.Samples(SlotAlbedo) {
		t.Fatal("albedo should be sampled after SetTexture")
	}

	m.SetUseTexture(SlotAlbedo, false)
	if m.Samples(SlotAlbedo) {
		t.Error("toggled-off slot should not be sampled")
	}
	if !m.HasTexture.Has(SlotAlbedo) {
		t.Error("toggle must not change HasTexture")
	}

	if m.Samples(SlotNormal) {
		t.Error("slot without texture should not be sampled")
	}
	m.SetUseTexture(SlotNormal, true)
	if m.Samples(SlotNormal) {
		t.Error("using a missing texture should not sample")
	}

	if prev := m.SetTexture(SlotAlbedo, nil); prev != tex {
		t.Error("SetTexture should return the replaced texture")
	}
	if m.HasTexture.Has(SlotAlbedo) {
		t.Error("clearing a slot should drop HasTexture")
	}
}

func TestSlotString(t *testing.T) {
	if SlotMetallicRoughness.String() != "metallic_roughness" {
		t.Errorf("got %q", SlotMetallicRoughness.String())
	}
	if TextureSlot(42).String() != "unknown" {
		t.Errorf("got %q", TextureSlot(42).String())
	}
}

func TestEnabledLights(t *testing.T) {
	s := New()
	s.PointLights = append(s.PointLights, lighting.PointLight{Enabled: true}, lighting.PointLight{}, lighting.PointLight{Enabled: true})
	if got := s.EnabledPointLights(); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("enabled points: %v", got)
	}
	if got := s.EnabledSpotLights(); len(got) != 0 {
		t.Errorf("enabled spots: %v", got)
	}
}
