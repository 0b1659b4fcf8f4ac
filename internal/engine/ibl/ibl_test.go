package ibl

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/radiance/internal/engine/framebuffer"
)

func TestPlanStagesInOrder(t *testing.T) {
	stages := Plan(Settings{IrradianceSize: 32})
	want := []StageKind{StageEnvironment, StageIrradiance, StagePrefilter, StageBRDF}
	if len(stages) != len(want) {
		t.Fatalf("stages: got %d, want %d", len(stages), len(want))
	}
	for i, st := range stages {
		if st.Kind != want[i] {
			t.Errorf("stage %d: got %v, want %v", i, st.Kind, want[i])
		}
	}
	if stages[0].Levels[0].Size != 512 || !stages[0].Cube {
		t.Errorf("environment: %+v", stages[0])
	}
	if stages[3].Levels[0].Size != 512 || stages[3].Cube {
		t.Errorf("brdf: %+v", stages[3])
	}
}

func TestPrefilterLevels(t *testing.T) {
	st := Plan(Settings{})[2]
	wantSize := []int32{128, 64, 32, 16, 8}
	wantRough := []float32{0, 0.25, 0.5, 0.75, 1}
	if len(st.Levels) != PrefilterMips {
		t.Fatalf("levels: got %d, want %d", len(st.Levels), PrefilterMips)
	}
	for i, lvl := range st.Levels {
		if lvl.Mip != int32(i) || lvl.Size != wantSize[i] || lvl.Roughness != wantRough[i] {
			t.Errorf("level %d: got %+v, want size %d roughness %v", i, lvl, wantSize[i], wantRough[i])
		}
	}
}

func TestIrradianceSizeClamped(t *testing.T) {
	tests := []struct {
		in, want int32
	}{
		{in: 0, want: 32},
		{in: 4, want: 8},
		{in: 16, want: 16},
		{in: 128, want: 32},
	}
	for _, tt := range tests {
		st := Plan(Settings{IrradianceSize: tt.in})[1]
		if got := st.Levels[0].Size; got != tt.want {
			t.Errorf("irradiance %d: got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFastIrradianceUsesSmallerKernel(t *testing.T) {
	slow := Plan(Settings{})[1].Samples
	fast := Plan(Settings{FastIrradiance: true})[1].Samples
	if fast >= slow {
		t.Errorf("fast kernel %d should be smaller than %d", fast, slow)
	}
	// Packed kernels hold one vec4 per sample.
	if got := len(StageKernel(Plan(Settings{FastIrradiance: true})[1], 0)); got != 4*fast {
		t.Errorf("fast kernel floats: got %d, want %d", got, 4*fast)
	}
	if got := len(StageKernel(Plan(Settings{})[1], 0)); got != 4*slow {
		t.Errorf("kernel floats: got %d, want %d", got, 4*slow)
	}
}

func TestKernelsDeterministic(t *testing.T) {
	for _, st := range Plan(Settings{}) {
		for level := range st.Levels {
			if !reflect.DeepEqual(StageKernel(st, level), StageKernel(Plan(Settings{})[st.Kind], level)) {
				t.Errorf("%v level %d kernel differs between runs", st.Kind, level)
			}
		}
	}
	if !reflect.DeepEqual(GGXHalfVectors(0.5, 256), GGXHalfVectors(0.5, 256)) {
		t.Error("GGX kernel differs between runs")
	}
	if !reflect.DeepEqual(HammersleySet(64), HammersleySet(64)) {
		t.Error("Hammersley set differs between runs")
	}
}

func TestStageKernelPerLevel(t *testing.T) {
	st := Plan(Settings{})[2]
	rough := StageKernel(st, len(st.Levels)-1)
	mirror := StageKernel(st, 0)
	if len(rough) != 4*st.Samples || len(mirror) != 4*st.Samples {
		t.Fatalf("prefilter kernel sizes: got %d and %d, want %d", len(mirror), len(rough), 4*st.Samples)
	}
	if reflect.DeepEqual(rough, mirror) {
		t.Error("prefilter levels should use different roughness kernels")
	}
	if k := StageKernel(Plan(Settings{})[0], 0); k != nil {
		t.Errorf("environment capture kernel: got %d floats, want none", len(k))
	}
}

func TestHammersley(t *testing.T) {
	pts := HammersleySet(4)
	want := []mgl32.Vec2{{0, 0}, {0.25, 0.5}, {0.5, 0.25}, {0.75, 0.75}}
	for i, p := range pts {
		if !p.ApproxEqual(want[i]) {
			t.Errorf("point %d: got %v, want %v", i, p, want[i])
		}
	}
}

func TestKernelDirectionsInUpperHemisphere(t *testing.T) {
	for name, dirs := range map[string][]mgl32.Vec3{
		"cosine": CosineHemisphere(512),
		"ggx":    GGXHalfVectors(0.7, 512),
	} {
		for i, d := range dirs {
			if d.Z() < 0 || mgl32.Abs(d.Len()-1) > 1e-4 {
				t.Fatalf("%s sample %d: %v not a unit upper-hemisphere vector", name, i, d)
			}
		}
	}
}

func TestGGXZeroRoughnessIsMirror(t *testing.T) {
	for i, h := range GGXHalfVectors(0, 16) {
		if !h.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-5) {
			t.Errorf("half vector %d: got %v, want +Z", i, h)
		}
	}
}

func TestPackedKernelsAreVec4(t *testing.T) {
	if got := len(packVec3(CosineHemisphere(10))); got != 40 {
		t.Errorf("packed directions: got %d floats, want 40", got)
	}
	if got := len(packVec2(HammersleySet(10))); got != 40 {
		t.Errorf("packed points: got %d floats, want 40", got)
	}
}

func TestMipHelpers(t *testing.T) {
	if MipSize(128, 7) != 1 || MipSize(128, 2) != 32 {
		t.Errorf("MipSize: %d %d", MipSize(128, 7), MipSize(128, 2))
	}
	if MipRoughness(0, 1) != 0 {
		t.Error("single level should have zero roughness")
	}
}

func TestIncompleteFramebufferSentinel(t *testing.T) {
	err := framebuffer.StatusError(0x8CDD)
	if !errors.Is(err, ErrIncompleteFramebuffer) {
		t.Errorf("got %v, want ErrIncompleteFramebuffer", err)
	}
}

func TestStageKindString(t *testing.T) {
	if StagePrefilter.String() != "prefilter" || StageKind(9).String() != "unknown" {
		t.Errorf("got %q %q", StagePrefilter.String(), StageKind(9).String())
	}
}
