package ibl

// Output sizes.
const (
	EnvironmentSize = 512
	PrefilterSize   = 128
	PrefilterMips   = 5
	BRDFSize        = 512

	MinIrradianceSize     = 8
	MaxIrradianceSize     = 32
	DefaultIrradianceSize = 32
)

// Settings selects the irradiance resolution and kernel.
type Settings struct {
	IrradianceSize int32
	FastIrradiance bool
}

// StageKind identifies one precompute stage.
type StageKind int

const (
	StageEnvironment StageKind = iota
	StageIrradiance
	StagePrefilter
	StageBRDF
)

func (k StageKind) String() string {
	switch k {
	case StageEnvironment:
		return "environment"
	case StageIrradiance:
		return "irradiance"
	case StagePrefilter:
		return "prefilter"
	case StageBRDF:
		return "brdf"
	}
	return "unknown"
}

// Level is one render target size of a stage.
type Level struct {
	Mip       int32
	Size      int32
	Roughness float32
}

// Stage describes what a precompute step renders.
type Stage struct {
	Kind    StageKind
	Cube    bool // Six faces per level
	Levels  []Level
	Samples int
}

// clampIrradiance keeps the irradiance cube within its supported range.
func clampIrradiance(n int32) int32 {
	if n == 0 {
		return DefaultIrradianceSize
	}
	return min(max(n, MinIrradianceSize), MaxIrradianceSize)
}

// MipSize returns the edge length of mip level of a base-sized texture.
func MipSize(base, level int32) int32 {
	return max(base>>level, 1)
}

// MipRoughness maps a prefilter mip to its roughness, 0 at mip 0 and 1 at
// the last mip.
func MipRoughness(level, levels int32) float32 {
	if levels <= 1 {
		return 0
	}
	return float32(level) / float32(levels-1)
}

// Plan lists the four stages in execution order.
func Plan(s Settings) []Stage {
	irr := clampIrradiance(s.IrradianceSize)
	irrSamples := IrradianceSamples
	if s.FastIrradiance {
		irrSamples = FastIrradianceSamples
	}

	prefilter := make([]Level, PrefilterMips)
	for m := int32(0); m < PrefilterMips; m++ {
		prefilter[m] = Level{Mip: m, Size: MipSize(PrefilterSize, m), Roughness: MipRoughness(m, PrefilterMips)}
	}

	return []Stage{
		{Kind: StageEnvironment, Cube: true, Levels: []Level{{Size: EnvironmentSize}}},
		{Kind: StageIrradiance, Cube: true, Levels: []Level{{Size: irr}}, Samples: irrSamples},
		{Kind: StagePrefilter, Cube: true, Levels: prefilter, Samples: PrefilterSamples},
		{Kind: StageBRDF, Levels: []Level{{Size: BRDFSize}}, Samples: BRDFSamples},
	}
}
