package starfield

import (
	"errors"
	"fmt"
)

// LayerState tracks the layer's resource lifecycle.
type LayerState int

const (
	// LayerUninitialized is the state before the first Attach.
	LayerUninitialized LayerState = iota

	// LayerAttached means Attach has run. GPU resources may still be nil
	// if shader compilation failed; Render is then a no-op.
	LayerAttached

	// LayerDetached means resources have been released. Attach may be
	// called again to build fresh resources.
	LayerDetached
)

// String returns a human-readable state name.
func (s LayerState) String() string {
	switch s {
	case LayerUninitialized:
		return "uninitialized"
	case LayerAttached:
		return "attached"
	case LayerDetached:
		return "detached"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ErrNilContext is returned by Attach when the host context is missing.
var ErrNilContext = errors.New("starfield: nil context")

// Layer is the starry-sky background layer a host registers behind its
// globe. All methods must be called from the host's render thread; the
// layer holds no locks.
type Layer struct {
	cfg      config
	state    LayerState
	registry LayerRegistry
	res      GPUResources

	// intensity is the only parameter mutable after construction. Changes
	// take effect on the next Render call.
	intensity float64
}

// New creates a detachable sky layer. The layer owns no GPU resources
// until Attach.
func New(opts ...Option) *Layer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Layer{cfg: cfg, intensity: cfg.intensity}
}

// State returns the current lifecycle state.
func (l *Layer) State() LayerState { return l.state }

// Intensity returns the current brightness multiplier.
func (l *Layer) Intensity() float64 { return l.intensity }

// SetIntensity changes the brightness multiplier. Takes effect on the next
// Render call.
func (l *Layer) SetIntensity(v float64) { l.intensity = v }

// Attach registers the layer with the host and builds its GPU resources:
// the shader module (with density baked in), the fullscreen quad buffers,
// the uniform buffer, and the render pipeline.
//
// A compile or link failure is non-fatal: the error is returned for the
// host's information, but the layer stays attached with nil resources and
// every Render call becomes a no-op. Detach and Attach again to retry.
func (l *Layer) Attach(ctx *Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	if l.state == LayerAttached {
		return nil
	}

	// Register before creating resources so the layer's slot in the draw
	// order exists even if compilation fails.
	if ctx.Layers != nil {
		if err := ctx.Layers.InsertLayerFront(l); err != nil {
			return fmt.Errorf("starfield: register layer: %w", err)
		}
		l.registry = ctx.Layers
	}
	l.state = LayerAttached

	source := ShaderSource(l.cfg.density, l.cfg.sizeBase, l.cfg.sizeRange)
	res, err := l.cfg.factory(ctx.Device, source)
	if err != nil {
		l.res = nil
		Logger().Warn("sky layer disabled, resource creation failed", "error", err)
		return err
	}
	l.res = res
	Logger().Debug("sky layer attached",
		"density", l.cfg.density, "intensity", l.intensity, "shaderBytes", len(source))
	return nil
}

// Render draws the sky for one frame. It is a no-op unless the layer is
// attached with live resources, and skips the frame entirely while the
// globe projection transition is zero (fully flat view, no sky visible).
//
// Render never fails: any condition that would prevent drawing results in
// no draw, and the host's render state is restored on every exit path.
func (l *Layer) Render(ctx *Context, frame FrameTransform) {
	if l.state != LayerAttached || l.res == nil || ctx == nil {
		return
	}
	if frame.ProjectionTransition == 0 {
		return
	}

	uniforms := DeriveFrameUniforms(frame, l.intensity)
	l.res.UploadUniforms(uniforms.Pack())

	if ctx.State != nil {
		guard := captureState(ctx.State)
		defer guard.restore()
		applySkyDrawState(ctx.State)
	}
	if ctx.Pass != nil {
		l.res.RecordDraw(ctx.Pass)
	}
}

// Detach unregisters the layer and destroys its GPU resources in reverse
// creation order. Safe to call when not attached. After Detach the layer
// may be attached again; that builds fresh resources.
func (l *Layer) Detach(ctx *Context) {
	if l.state != LayerAttached {
		return
	}
	registry := l.registry
	if registry == nil && ctx != nil {
		registry = ctx.Layers
	}
	if registry != nil {
		if err := registry.RemoveLayer(l); err != nil {
			Logger().Warn("sky layer unregister failed", "error", err)
		}
	}
	l.registry = nil
	if l.res != nil {
		l.res.Destroy()
		l.res = nil
	}
	l.state = LayerDetached
	Logger().Debug("sky layer detached")
}
