package starfield

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// SoftwareRenderer evaluates the star field on the CPU and composites it
// into an *image.RGBA. It mirrors the GPU fragment shader ray for ray and
// honors the same render gate, so hosts without a GPU device get the same
// sky, and tests get a reference image for the shader math.
type SoftwareRenderer struct {
	field StarField
	scale float64
}

// NewSoftwareRenderer creates a CPU sky renderer. It accepts the same
// options as New; GPU-only options are ignored.
func NewSoftwareRenderer(opts ...Option) *SoftwareRenderer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &SoftwareRenderer{field: cfg.field(), scale: cfg.resolutionScale}
}

// Intensity returns the current brightness multiplier.
func (r *SoftwareRenderer) Intensity() float64 { return r.field.Intensity }

// SetIntensity changes the brightness multiplier for subsequent renders.
func (r *SoftwareRenderer) SetIntensity(v float64) { r.field.Intensity = v }

// Render composites the sky over dst for the given frame. Like the GPU
// layer it draws nothing while the projection transition is zero. With a
// resolution scale below 1 the sky is rendered small and upscaled with
// bilinear filtering before compositing.
func (r *SoftwareRenderer) Render(dst *image.RGBA, frame FrameTransform) {
	if dst == nil || frame.ProjectionTransition == 0 {
		return
	}
	bounds := dst.Bounds()
	if bounds.Empty() {
		return
	}

	target := bounds
	if r.scale < 1 {
		w := max(1, int(float64(bounds.Dx())*r.scale))
		h := max(1, int(float64(bounds.Dy())*r.scale))
		target = image.Rect(0, 0, w, h)
	}

	uniforms := DeriveFrameUniforms(frame, r.field.Intensity)
	sky := image.NewRGBA(target)
	r.renderRays(sky, uniforms)

	if r.scale < 1 {
		xdraw.ApproxBiLinear.Scale(dst, bounds, sky, sky.Bounds(), xdraw.Over, nil)
		return
	}
	xdraw.Draw(dst, bounds, sky, sky.Bounds().Min, xdraw.Over)
}

// renderRays fills dst with the premultiplied sky colors, one view ray per
// pixel, the same path the fragment shader takes.
func (r *SoftwareRenderer) renderRays(dst *image.RGBA, u FrameUniforms) {
	bounds := dst.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	for py := 0; py < h; py++ {
		// NDC y points up, pixel rows grow down.
		ndcY := 1 - (float64(py)+0.5)/float64(h)*2
		for px := 0; px < w; px++ {
			ndcX := (float64(px)+0.5)/float64(w)*2 - 1
			dst.SetRGBA(bounds.Min.X+px, bounds.Min.Y+py, r.shade(ndcX, ndcY, u))
		}
	}
}

// shade evaluates one view ray and returns the premultiplied pixel color.
func (r *SoftwareRenderer) shade(ndcX, ndcY float64, u FrameUniforms) color.RGBA {
	point := u.InverseProjection.MulVec4(Vec4{ndcX, ndcY, 1, 1}).PerspectiveDivide()
	ray := point.Sub(u.GlobePosition)
	lng, lat := RayToSpherical(ray, u.Camera, u.GlobeCenter)

	strength := r.field.Strength(lng, lat)
	if strength == 0 {
		return color.RGBA{}
	}
	alpha := clamp(strength, 0, 1)
	lum := clamp(strength*u.Intensity, 0, 1)
	c := uint8(lum*alpha*255 + 0.5)
	return color.RGBA{R: c, G: c, B: c, A: uint8(alpha*255 + 0.5)}
}
