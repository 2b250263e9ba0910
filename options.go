package starfield

// config holds the construction-time parameters shared by Layer and
// SoftwareRenderer.
type config struct {
	intensity       float64
	density         float64
	sizeBase        float64
	sizeRange       float64
	resolutionScale float64
	factory         ResourceFactory
}

func defaultConfig() config {
	return config{
		intensity:       DefaultIntensity,
		density:         DefaultDensity,
		sizeBase:        DefaultStarSizeBase,
		sizeRange:       DefaultStarSizeRange,
		resolutionScale: 1,
		factory:         defaultResourceFactory,
	}
}

// field builds the StarField matching the configuration.
func (c config) field() StarField {
	return StarField{
		Density:   c.density,
		Intensity: c.intensity,
		SizeBase:  c.sizeBase,
		SizeRange: c.sizeRange,
	}
}

// Option configures a Layer or SoftwareRenderer at construction.
type Option func(*config)

// WithIntensity sets the initial brightness multiplier. The default is
// DefaultIntensity. Intensity can also be changed per frame with
// SetIntensity.
func WithIntensity(v float64) Option {
	return func(c *config) { c.intensity = v }
}

// WithDensity sets the fraction of grid cells that contain a star, clamped
// to [0, 1]. The default is DefaultDensity. Density is baked into the
// shader at attach and cannot change afterwards; detach and re-attach to
// apply a new value.
func WithDensity(v float64) Option {
	return func(c *config) { c.density = clamp(v, 0, 1) }
}

// WithStarSizeRange sets the per-star radius parameters: each star's
// radius is base + range * sizeHash, in grid-cell units. The defaults are
// DefaultStarSizeBase and DefaultStarSizeRange.
func WithStarSizeRange(base, rng float64) Option {
	return func(c *config) {
		c.sizeBase = base
		c.sizeRange = rng
	}
}

// WithResolutionScale sets the software renderer's internal resolution as
// a fraction of the target image, in (0, 1]. Values below 1 render fewer
// rays and upscale the result. The GPU path ignores this option.
func WithResolutionScale(v float64) Option {
	return func(c *config) {
		if v > 0 && v <= 1 {
			c.resolutionScale = v
		}
	}
}

// WithResourceFactory overrides how GPU resources are built at attach.
// Intended for tests and hosts with nonstandard device plumbing.
func WithResourceFactory(f ResourceFactory) Option {
	return func(c *config) {
		if f != nil {
			c.factory = f
		}
	}
}
