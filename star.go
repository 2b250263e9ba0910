package starfield

import "math"

// gridResolution is the number of star-field grid cells along each axis of
// the spherical UV square. One cell holds at most one star.
const gridResolution = 200.0

// hashScale amplifies the sine so that its fractional part decorrelates
// across neighboring cells. The dot-product coefficients below are the
// classic one-liner GPU hash constants; each per-star attribute uses its
// own pair so the attributes are mutually independent.
const hashScale = 43758.5453

var (
	presenceHashCoeff = [2]float64{12.9898, 78.233}
	offsetXHashCoeff  = [2]float64{39.3468, 11.1355}
	offsetYHashCoeff  = [2]float64{73.1566, 52.2348}
	sizeHashCoeff     = [2]float64{93.9898, 67.345}
)

// Default star appearance parameters.
const (
	// DefaultIntensity is the brightness multiplier applied to the final
	// star color. Values well above 1 are expected: the falloff curve is
	// steep, so only pixels very close to a star center saturate.
	DefaultIntensity = 20.0

	// DefaultDensity is the fraction of grid cells that contain a star.
	DefaultDensity = 0.15

	// DefaultStarSizeBase and DefaultStarSizeRange control the per-star
	// radius: size = base + range * sizeHash, in grid-cell units.
	DefaultStarSizeBase  = 0.015
	DefaultStarSizeRange = 0.025
)

// RGB is a linear-light color triple. Components are not clamped; the
// intensity multiplier routinely pushes star centers above 1.
type RGB struct {
	R, G, B float64
}

// Star describes the star owned by one grid cell.
type Star struct {
	// Present reports whether the cell contains a star at the configured
	// density. The remaining fields are meaningful only when Present.
	Present bool

	// OffsetX and OffsetY place the star center inside the cell, each in
	// [0, 1).
	OffsetX, OffsetY float64

	// Size is the star radius in grid-cell units.
	Size float64

	// Brightness is the peak strength at the star center, in [0.5, 1):
	// 0.5 + 0.5 * sizeHash, so larger stars are also brighter.
	Brightness float64
}

// StarField evaluates the procedural star pattern on the CPU. It mirrors
// the fragment shader exactly (in float64 instead of float32), which is
// what makes the shader's output testable without a GPU.
//
// The zero value renders no stars; construct with NewStarField or set the
// fields directly.
type StarField struct {
	// Density is the fraction of grid cells containing a star, in [0, 1].
	Density float64

	// Intensity multiplies the final color.
	Intensity float64

	// SizeBase and SizeRange control per-star radius.
	SizeBase, SizeRange float64
}

// NewStarField returns a StarField with the given density and intensity
// and default size parameters.
func NewStarField(density, intensity float64) StarField {
	return StarField{
		Density:   clamp(density, 0, 1),
		Intensity: intensity,
		SizeBase:  DefaultStarSizeBase,
		SizeRange: DefaultStarSizeRange,
	}
}

// CellStar returns the star generated for the grid cell at integer
// coordinates (gx, gy). The result is deterministic: the same cell always
// produces the same star.
func (f StarField) CellStar(gx, gy float64) Star {
	presence := gridHash(gx, gy, presenceHashCoeff)
	if presence <= 1-f.Density {
		return Star{}
	}
	sizeHash := gridHash(gx, gy, sizeHashCoeff)
	return Star{
		Present:    true,
		OffsetX:    gridHash(gx, gy, offsetXHashCoeff),
		OffsetY:    gridHash(gx, gy, offsetYHashCoeff),
		Size:       f.SizeBase + f.SizeRange*sizeHash,
		Brightness: 0.5 + 0.5*sizeHash,
	}
}

// Sample returns the star color contributed at spherical direction
// (lng, lat), both in radians with lng in [-pi, pi] and lat in
// [-pi/2, pi/2]. The result is white scaled by the falloff strength and
// the intensity; directions that miss every star return black.
func (f StarField) Sample(lng, lat float64) RGB {
	s := f.Strength(lng, lat) * f.Intensity
	return RGB{s, s, s}
}

// Strength returns the falloff strength at (lng, lat) before the intensity
// multiplier, in [0, 1). It doubles as the layer's alpha channel.
func (f StarField) Strength(lng, lat float64) float64 {
	// Map the sphere onto the unit UV square, then onto the star grid.
	u := lng/math.Pi*0.5 + 0.5
	v := lat/(math.Pi/2)*0.5 + 0.5
	su := u * gridResolution
	sv := v * gridResolution

	star := f.CellStar(math.Floor(su), math.Floor(sv))
	if !star.Present {
		return 0
	}

	dx := (frac(su) - star.OffsetX) / gridResolution
	dy := (frac(sv) - star.OffsetY) / gridResolution

	// Aspect correction: UV cells shrink horizontally toward the poles
	// (clamped so polar stars stay finite) and the latitude axis covers
	// half the angular range of the longitude axis.
	dx /= math.Max(0.3, math.Cos(lat))
	dy *= 2

	dist := math.Hypot(dx, dy) * gridResolution
	falloff := 1 - smoothstep(0, star.Size, dist)
	return falloff * falloff * falloff * falloff * star.Brightness
}

// gridHash is the per-cell hash: frac(sin(dot(g, k)) * hashScale).
func gridHash(gx, gy float64, k [2]float64) float64 {
	return frac(math.Sin(gx*k[0]+gy*k[1]) * hashScale)
}

func frac(x float64) float64 { return x - math.Floor(x) }

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// smoothstep is the GLSL/WGSL builtin: cubic Hermite interpolation of x
// between edges e0 and e1, clamped to [0, 1].
func smoothstep(e0, e1, x float64) float64 {
	t := clamp((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}
