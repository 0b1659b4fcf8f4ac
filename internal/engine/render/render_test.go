package render

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/radiance/internal/config"
	"github.com/Faultbox/radiance/internal/engine/batch"
	"github.com/Faultbox/radiance/internal/engine/scene"
	"github.com/Faultbox/radiance/internal/engine/texture"
)

// fakeRegistry counts references per texture ID and hands out ID+1000 handles.
type fakeRegistry struct {
	refs    map[uint32]int
	evicted []uint32
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{refs: make(map[uint32]int)}
}

func (f *fakeRegistry) Acquire(t *texture.Texture) uint64 {
	f.refs[t.ID]++
	return uint64(t.ID) + 1000
}

func (f *fakeRegistry) Release(t *texture.Texture) {
	f.refs[t.ID]--
	if f.refs[t.ID] == 0 {
		delete(f.refs, t.ID)
		f.evicted = append(f.evicted, t.ID)
	}
}

func (f *fakeRegistry) Handle(t *texture.Texture) (uint64, bool) {
	if f.refs[t.ID] > 0 {
		return uint64(t.ID) + 1000, true
	}
	return 0, false
}

func TestResidencyFollowsSampledSlots(t *testing.T) {
	reg := newFakeRegistry()
	res := newResidency(reg)

	albedo := &texture.Texture{ID: 1}
	normal := &texture.Texture{ID: 2}
	m := scene.NewMaterial("brick")
	m.SetTexture(scene.SlotAlbedo, albedo)
	m.SetTexture(scene.SlotNormal, normal)

	res.sync(m)
	if reg.refs[1] != 1 || reg.refs[2] != 1 {
		t.Fatalf("refs after sync: got %v, want one each", reg.refs)
	}

	// Disabling a slot releases its texture.
	m.SetUseTexture(scene.SlotNormal, false)
	res.sync(m)
	if _, ok := reg.refs[2]; ok {
		t.Errorf("normal texture still referenced after toggle off")
	}
	if reg.refs[1] != 1 {
		t.Errorf("albedo refs: got %d, want 1", reg.refs[1])
	}

	// Re-enabling makes it resident again.
	m.SetUseTexture(scene.SlotNormal, true)
	res.sync(m)
	if reg.refs[2] != 1 {
		t.Errorf("normal refs after toggle on: got %d, want 1", reg.refs[2])
	}
}

func TestResidencyKeepsUnchangedTexture(t *testing.T) {
	reg := newFakeRegistry()
	res := newResidency(reg)

	tex := &texture.Texture{ID: 7}
	m := scene.NewMaterial("metal")
	m.SetTexture(scene.SlotAlbedo, tex)

	res.sync(m)
	res.sync(m)
	res.sync(m)
	if reg.refs[7] != 1 {
		t.Errorf("refs after repeated sync: got %d, want 1", reg.refs[7])
	}
	if len(reg.evicted) != 0 {
		t.Errorf("texture evicted while in use: %v", reg.evicted)
	}
}

func TestResidencySharedTexture(t *testing.T) {
	reg := newFakeRegistry()
	res := newResidency(reg)

	shared := &texture.Texture{ID: 3}
	a := scene.NewMaterial("a")
	a.ID = 0
	a.SetTexture(scene.SlotAlbedo, shared)
	b := scene.NewMaterial("b")
	b.ID = 1
	b.SetTexture(scene.SlotEmissive, shared)

	res.syncAll([]*scene.Material{a, b})
	if reg.refs[3] != 2 {
		t.Fatalf("shared refs: got %d, want 2", reg.refs[3])
	}

	a.SetTexture(scene.SlotAlbedo, nil)
	res.sync(a)
	if reg.refs[3] != 1 {
		t.Errorf("shared refs after one release: got %d, want 1", reg.refs[3])
	}
	if h, ok := res.Handle(shared); !ok || h != 1003 {
		t.Errorf("handle: got %d,%v, want 1003,true", h, ok)
	}
}

func TestResidencyDropsRemovedMaterials(t *testing.T) {
	reg := newFakeRegistry()
	res := newResidency(reg)

	a := scene.NewMaterial("a")
	a.SetTexture(scene.SlotAlbedo, &texture.Texture{ID: 1})
	b := scene.NewMaterial("b")
	b.ID = 1
	b.SetTexture(scene.SlotAlbedo, &texture.Texture{ID: 2})
	res.syncAll([]*scene.Material{a, b})

	res.syncAll([]*scene.Material{a})
	if _, ok := reg.refs[2]; ok {
		t.Error("texture of removed material still referenced")
	}
	if reg.refs[1] != 1 {
		t.Errorf("refs of kept material: got %d, want 1", reg.refs[1])
	}

	res.releaseAll()
	if len(reg.refs) != 0 {
		t.Errorf("refs after releaseAll: got %v, want none", reg.refs)
	}
}

func TestResidencyFeedsMaterialFlags(t *testing.T) {
	reg := newFakeRegistry()
	res := newResidency(reg)

	m := scene.NewMaterial("painted")
	m.SetTexture(scene.SlotAlbedo, &texture.Texture{ID: 5})
	res.sync(m)

	rec := batch.NewMaterialRecord(m, res)
	if rec.Handles[scene.SlotAlbedo] != 1005 {
		t.Errorf("albedo handle: got %d, want 1005", rec.Handles[scene.SlotAlbedo])
	}
	if rec.Flags[scene.SlotAlbedo] != 1 {
		t.Errorf("albedo flag: got %d, want 1", rec.Flags[scene.SlotAlbedo])
	}
	if rec.Flags[scene.SlotNormal] != 0 {
		t.Errorf("normal flag: got %d, want 0", rec.Flags[scene.SlotNormal])
	}
}

func TestCubeVertices(t *testing.T) {
	v := cubeVertices()
	if len(v) != 36*3 {
		t.Fatalf("cube floats: got %d, want %d", len(v), 36*3)
	}
	for i, f := range v {
		if f != 1 && f != -1 {
			t.Fatalf("component %d: got %f, want +-1", i, f)
		}
	}

	// Every triangle faces outward: its normal points the same way as its centroid.
	for tri := 0; tri < 12; tri++ {
		p := func(k int) mgl32.Vec3 {
			o := (tri*3 + k) * 3
			return mgl32.Vec3{v[o], v[o+1], v[o+2]}
		}
		a, b, c := p(0), p(1), p(2)
		n := b.Sub(a).Cross(c.Sub(a))
		centroid := a.Add(b).Add(c).Mul(1.0 / 3)
		if n.Dot(centroid) <= 0 {
			t.Errorf("triangle %d faces inward", tri)
		}
	}
}

func TestQuadVertices(t *testing.T) {
	v := quadVertices()
	if len(v) != 16 {
		t.Fatalf("quad floats: got %d, want 16", len(v))
	}
	for i := 0; i < 4; i++ {
		x, y, u, w := v[i*4], v[i*4+1], v[i*4+2], v[i*4+3]
		if u != (x+1)/2 || w != (y+1)/2 {
			t.Errorf("vertex %d: uv (%f,%f) does not match position (%f,%f)", i, u, w, x, y)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Graphics.Exposure = 1.7
	cfg.Lighting.FastIrradiance = true
	cfg.Lighting.IrradianceSize = 16
	cfg.Shadows.PointFar = 40
	cfg.Shadows.SpotExtent = 6

	o := OptionsFromConfig(cfg)
	if o.Width != int32(cfg.Graphics.Width) || o.Height != int32(cfg.Graphics.Height) {
		t.Errorf("size: got %dx%d", o.Width, o.Height)
	}
	if o.Exposure != 1.7 {
		t.Errorf("exposure: got %f, want 1.7", o.Exposure)
	}
	if !o.IBL.FastIrradiance || o.IBL.IrradianceSize != 16 {
		t.Errorf("ibl settings: got %+v", o.IBL)
	}
	if o.Shadows.PointFar != 40 || o.Shadows.SpotExtent != 6 {
		t.Errorf("shadow settings: got %+v", o.Shadows)
	}
	if o.Shadows.DirectionalResolution != cfg.Shadows.DirectionalResolution {
		t.Errorf("directional resolution: got %d", o.Shadows.DirectionalResolution)
	}
}

func TestLightDefines(t *testing.T) {
	d := lightDefines()
	if d["MAX_POINT_LIGHTS"] != "8" {
		t.Errorf("MAX_POINT_LIGHTS: got %q, want 8", d["MAX_POINT_LIGHTS"])
	}
	if d["MAX_SPOT_LIGHTS"] != "4" {
		t.Errorf("MAX_SPOT_LIGHTS: got %q, want 4", d["MAX_SPOT_LIGHTS"])
	}
}

func TestAspect(t *testing.T) {
	if got := aspect(1600, 900); mgl32.Abs(got-16.0/9) > 1e-6 {
		t.Errorf("aspect: got %f", got)
	}
	if got := aspect(0, 900); got != 1 {
		t.Errorf("degenerate aspect: got %f, want 1", got)
	}
}

// recordingWriter keeps the last matrix written to each instance record.
type recordingWriter struct {
	written map[int]mgl32.Mat4
}

func (w *recordingWriter) UpdateInstanceTransform(records []int, world mgl32.Mat4) {
	for _, r := range records {
		w.written[r] = world
	}
}

func TestEntityTransformRewritesChildren(t *testing.T) {
	s := scene.New()
	s.AddMaterial(scene.NewMaterial("default"))
	cube := s.AddModel("cube", scene.CubeMesh(0))

	parent, err := s.AddEntity(scene.NewEntity(cube, mgl32.Vec3{1, 0, 0}))
	if err != nil {
		t.Fatal(err)
	}
	childEnt := scene.NewEntity(cube, mgl32.Vec3{0, 1, 0})
	childEnt.Parent = parent
	child, err := s.AddEntity(childEnt)
	if err != nil {
		t.Fatal(err)
	}
	grandEnt := scene.NewEntity(cube, mgl32.Vec3{0, 0, 1})
	grandEnt.Parent = child
	grand, err := s.AddEntity(grandEnt)
	if err != nil {
		t.Fatal(err)
	}
	other, err := s.AddEntity(scene.NewEntity(cube, mgl32.Vec3{-3, 0, 0}))
	if err != nil {
		t.Fatal(err)
	}

	b, err := batch.Build(s)
	if err != nil {
		t.Fatalf("batch.Build: %v", err)
	}

	s.Entities[parent].Position = mgl32.Vec3{5, 0, 0}
	w := &recordingWriter{written: make(map[int]mgl32.Mat4)}
	if err := writeSubtree(w, b, s, parent); err != nil {
		t.Fatalf("writeSubtree: %v", err)
	}

	want := map[scene.EntityIndex]mgl32.Vec3{
		parent: {5, 0, 0},
		child:  {5, 1, 0},
		grand:  {5, 1, 1},
	}
	for e, pos := range want {
		for _, rec := range b.EntityRecords[e] {
			m, ok := w.written[rec]
			if !ok {
				t.Errorf("entity %d record %d not rewritten", e, rec)
				continue
			}
			if got := m.Col(3).Vec3(); !got.ApproxEqual(pos) {
				t.Errorf("entity %d translation: got %v, want %v", e, got, pos)
			}
		}
	}
	for _, rec := range b.EntityRecords[other] {
		if _, ok := w.written[rec]; ok {
			t.Errorf("unrelated entity record %d rewritten", rec)
		}
	}
}

func TestEntityTransformRejectsUnknownEntity(t *testing.T) {
	s := scene.New()
	s.AddMaterial(scene.NewMaterial("default"))
	cube := s.AddModel("cube", scene.CubeMesh(0))
	if _, err := s.AddEntity(scene.NewEntity(cube, mgl32.Vec3{})); err != nil {
		t.Fatal(err)
	}
	b, err := batch.Build(s)
	if err != nil {
		t.Fatal(err)
	}
	w := &recordingWriter{written: make(map[int]mgl32.Mat4)}
	if err := writeSubtree(w, b, s, 7); !errors.Is(err, scene.ErrNoEntity) {
		t.Errorf("got %v, want ErrNoEntity", err)
	}
	if len(w.written) != 0 {
		t.Errorf("wrote %d records for an unknown entity", len(w.written))
	}
}

func TestSubRangeUpdatesNeedBuild(t *testing.T) {
	var r Renderer
	s := scene.New()
	if err := r.UpdateEntityTransform(s, 0); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("UpdateEntityTransform: got %v, want ErrNotBuilt", err)
	}
	if err := r.UpdateEntities(s, []scene.EntityIndex{0}); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("UpdateEntities: got %v, want ErrNotBuilt", err)
	}
	if err := r.UpdateMaterials(s); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("UpdateMaterials: got %v, want ErrNotBuilt", err)
	}
}
