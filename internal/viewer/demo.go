package viewer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/radiance/internal/config"
	"github.com/Faultbox/radiance/internal/engine/lighting"
	"github.com/Faultbox/radiance/internal/engine/scene"
)

// Demo materials in scene order.
const (
	matGround uint32 = iota
	matGold
	matPlastic
	matRough
	matEmissive
	demoMaterialCount
)

// BuildDemo creates a grid of cubes and spheres over a ground plane, lit by
// the sun, a ring of point lights and two spot lights. With Animate set,
// alternate cubes bob and spin and every sphere orbits its parent cube.
func BuildDemo(cfg config.SceneConfig) (*scene.Scene, error) {
	s := scene.New()

	ground := scene.NewMaterial("ground")
	ground.Albedo = mgl32.Vec3{0.45, 0.45, 0.42}
	ground.Roughness = 0.9
	s.AddMaterial(ground)

	gold := scene.NewMaterial("gold")
	gold.Albedo = mgl32.Vec3{1.0, 0.78, 0.34}
	gold.Metallic = 1
	gold.Roughness = 0.25
	s.AddMaterial(gold)

	plastic := scene.NewMaterial("plastic")
	plastic.Albedo = mgl32.Vec3{0.1, 0.35, 0.8}
	plastic.Roughness = 0.4
	s.AddMaterial(plastic)

	rough := scene.NewMaterial("rough")
	rough.Albedo = mgl32.Vec3{0.7, 0.2, 0.15}
	rough.Roughness = 0.85
	s.AddMaterial(rough)

	glow := scene.NewMaterial("emissive")
	glow.Albedo = mgl32.Vec3{0.05, 0.05, 0.05}
	glow.Emissive = mgl32.Vec3{1.0, 0.5, 0.1}
	s.AddMaterial(glow)

	n := cfg.GridSize
	extent := float32(max(n, 1)) * cfg.Spacing

	groundModel := s.AddModel("ground", scene.PlaneMesh(extent+cfg.Spacing*2, matGround))
	cubeModels := [2]int{
		s.AddModel("cube_gold", scene.CubeMesh(matGold)),
		s.AddModel("cube_rough", scene.CubeMesh(matRough)),
	}
	sphereModel := s.AddModel("sphere", scene.SphereMesh(16, 24, matPlastic))
	beaconModel := s.AddModel("beacon", scene.CubeMesh(matEmissive))

	if _, err := s.AddEntity(scene.NewEntity(groundModel, mgl32.Vec3{0, -0.5, 0})); err != nil {
		return nil, err
	}

	offset := (float32(n) - 1) * cfg.Spacing / 2
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			pos := mgl32.Vec3{float32(x)*cfg.Spacing - offset, 0, float32(z)*cfg.Spacing - offset}
			cube := scene.NewEntity(cubeModels[(x+z)%2], pos)
			if cfg.Animate && (x+z)%2 == 1 {
				cube.Movement = &scene.MovementController{Axis: mgl32.Vec3{0, 1, 0}, Amplitude: 0.4, Speed: 1.5}
				cube.Spin = &scene.RotationController{DegreesPerSecond: mgl32.Vec3{0, 45, 0}}
			}
			parent, err := s.AddEntity(cube)
			if err != nil {
				return nil, err
			}

			sphere := scene.NewEntity(sphereModel, mgl32.Vec3{0, 1, 0})
			sphere.Parent = parent
			sphere.Scale = mgl32.Vec3{0.6, 0.6, 0.6}
			if cfg.Animate {
				sphere.Movement = &scene.MovementController{Axis: mgl32.Vec3{1, 0, 0}, Amplitude: 0.3, Speed: 2}
			}
			if _, err := s.AddEntity(sphere); err != nil {
				return nil, err
			}
		}
	}

	beacon := scene.NewEntity(beaconModel, mgl32.Vec3{0, 2, 0})
	beacon.Scale = mgl32.Vec3{0.3, 3, 0.3}
	if cfg.Animate {
		beacon.Spin = &scene.RotationController{DegreesPerSecond: mgl32.Vec3{0, 30, 0}}
	}
	if _, err := s.AddEntity(beacon); err != nil {
		return nil, err
	}

	s.Directional = lighting.DefaultDirectional()

	ring := extent / 2
	for i := 0; i < lighting.MaxPointLights/2; i++ {
		angle := float32(i) / float32(lighting.MaxPointLights/2) * 2 * math.Pi
		s.PointLights = append(s.PointLights, lighting.PointLight{
			Position:  mgl32.Vec3{ring * cos(angle), 2.5, ring * sin(angle)},
			Color:     pointColors[i%len(pointColors)],
			Intensity: 8,
			Enabled:   true,
		})
	}
	for _, x := range []float32{-ring, ring} {
		s.SpotLights = append(s.SpotLights, lighting.SpotLight{
			Position:    mgl32.Vec3{x, 6, ring},
			Direction:   mgl32.Vec3{-x, -6, -ring}.Normalize(),
			CutOff:      15,
			OuterCutOff: 22,
			Color:       mgl32.Vec3{1, 1, 0.9},
			Intensity:   20,
			Enabled:     true,
		})
	}
	return s, nil
}

var pointColors = []mgl32.Vec3{
	{1, 0.3, 0.2},
	{0.2, 1, 0.4},
	{0.3, 0.4, 1},
	{1, 0.9, 0.5},
}

// Bounds returns the axis-aligned box spanned by the scene's entity positions.
func Bounds(s *scene.Scene) (lo, hi mgl32.Vec3) {
	if len(s.Entities) == 0 {
		return mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}
	}
	lo = mgl32.Vec3{1e30, 1e30, 1e30}
	hi = lo.Mul(-1)
	for i := range s.Entities {
		p, err := s.WorldPosition(scene.EntityIndex(i))
		if err != nil {
			continue
		}
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	return lo, hi
}

func sin(a float32) float32 { return float32(math.Sin(float64(a))) }
func cos(a float32) float32 { return float32(math.Cos(float64(a))) }
