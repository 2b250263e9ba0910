package starfield

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// fakeDevice satisfies DeviceHandle without a real GPU.
type fakeDevice struct{}

func (fakeDevice) Device() gpucontext.Device   { return nil }
func (fakeDevice) Queue() gpucontext.Queue     { return nil }
func (fakeDevice) Adapter() gpucontext.Adapter { return nil }
func (fakeDevice) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}
func (fakeDevice) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{} }

var _ DeviceHandle = fakeDevice{}

type fakeRegistry struct {
	inserted []any
	removed  []any
}

func (r *fakeRegistry) InsertLayerFront(layer any) error {
	r.inserted = append(r.inserted, layer)
	return nil
}

func (r *fakeRegistry) RemoveLayer(layer any) error {
	r.removed = append(r.removed, layer)
	return nil
}

type fakeResources struct {
	uploads   [][]byte
	draws     int
	destroyed int
}

func (f *fakeResources) UploadUniforms(data []byte) {
	f.uploads = append(f.uploads, append([]byte(nil), data...))
}
func (f *fakeResources) RecordDraw(rp PassEncoder) {
	rp.DrawIndexed(6, 1, 0, 0, 0)
	f.draws++
}
func (f *fakeResources) Destroy() { f.destroyed++ }

type fakePass struct {
	pipelineSets int
	drawCalls    int
	indexCounts  []uint32
}

func (p *fakePass) SetPipeline(hal.RenderPipeline)                          { p.pipelineSets++ }
func (p *fakePass) SetBindGroup(uint32, hal.BindGroup, []uint32)            {}
func (p *fakePass) SetVertexBuffer(uint32, hal.Buffer, uint64)              {}
func (p *fakePass) SetIndexBuffer(hal.Buffer, gputypes.IndexFormat, uint64) {}
func (p *fakePass) DrawIndexed(indexCount, _, _ uint32, _ int32, _ uint32) {
	p.drawCalls++
	p.indexCounts = append(p.indexCounts, indexCount)
}

// testHarness wires a layer with fakes and returns the pieces the
// assertions need.
type testHarness struct {
	layer     *Layer
	ctx       *Context
	registry  *fakeRegistry
	resources *fakeResources
	pass      *fakePass
	state     *fakeRenderState
	factory   int // invocation count
	sources   []string
}

func newHarness(t *testing.T, factoryErr error, opts ...Option) *testHarness {
	t.Helper()
	h := &testHarness{
		registry: &fakeRegistry{},
		pass:     &fakePass{},
		state:    &fakeRenderState{depthWrite: true},
	}
	factory := func(device DeviceHandle, source string) (GPUResources, error) {
		h.factory++
		h.sources = append(h.sources, source)
		if factoryErr != nil {
			return nil, factoryErr
		}
		h.resources = &fakeResources{}
		return h.resources, nil
	}
	h.layer = New(append(opts, WithResourceFactory(factory))...)
	h.ctx = &Context{
		Device: fakeDevice{},
		Layers: h.registry,
		State:  h.state,
		Pass:   h.pass,
	}
	return h
}

func visibleFrame() FrameTransform {
	return FrameTransform{
		Projection:           Mat4Identity(),
		InverseProjection:    Mat4Identity(),
		WorldSize:            512,
		ProjectionTransition: 1,
	}
}

func TestLayer_AttachRegistersAndBuilds(t *testing.T) {
	h := newHarness(t, nil)
	if h.layer.State() != LayerUninitialized {
		t.Fatalf("initial state = %v, want uninitialized", h.layer.State())
	}
	if err := h.layer.Attach(h.ctx); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if h.layer.State() != LayerAttached {
		t.Errorf("state = %v, want attached", h.layer.State())
	}
	if len(h.registry.inserted) != 1 || h.registry.inserted[0] != any(h.layer) {
		t.Errorf("registry insertions = %v, want the layer once", h.registry.inserted)
	}
	if h.factory != 1 {
		t.Errorf("factory invocations = %d, want 1", h.factory)
	}
	if !strings.Contains(h.sources[0], "fn fs_main") {
		t.Error("factory did not receive the generated shader source")
	}
}

func TestLayer_AttachIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.layer.Attach(h.ctx); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := h.layer.Attach(h.ctx); err != nil {
		t.Fatalf("second Attach: %v", err)
	}
	if h.factory != 1 {
		t.Errorf("factory invocations = %d, want 1", h.factory)
	}
	if len(h.registry.inserted) != 1 {
		t.Errorf("registry insertions = %d, want 1", len(h.registry.inserted))
	}
}

func TestLayer_AttachNilContext(t *testing.T) {
	l := New()
	if err := l.Attach(nil); !errors.Is(err, ErrNilContext) {
		t.Errorf("Attach(nil) = %v, want ErrNilContext", err)
	}
	if l.State() != LayerUninitialized {
		t.Errorf("state = %v, want uninitialized", l.State())
	}
}

func TestLayer_RenderGate(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.layer.Attach(h.ctx); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	flat := visibleFrame()
	flat.ProjectionTransition = 0
	h.layer.Render(h.ctx, flat)
	if h.pass.drawCalls != 0 {
		t.Fatalf("draw calls at transition 0 = %d, want 0", h.pass.drawCalls)
	}
	if len(h.resources.uploads) != 0 {
		t.Fatalf("uniform uploads at transition 0 = %d, want 0", len(h.resources.uploads))
	}

	for _, transition := range []float64{0.001, 0.5, 1} {
		frame := visibleFrame()
		frame.ProjectionTransition = transition
		before := h.pass.drawCalls
		h.layer.Render(h.ctx, frame)
		if h.pass.drawCalls != before+1 {
			t.Errorf("transition %v: draw calls = %d, want %d",
				transition, h.pass.drawCalls, before+1)
		}
	}
	if len(h.resources.uploads) != 3 {
		t.Errorf("uniform uploads = %d, want 3", len(h.resources.uploads))
	}
}

func TestLayer_RenderBeforeAttachIsNoop(t *testing.T) {
	h := newHarness(t, nil)
	h.layer.Render(h.ctx, visibleFrame())
	if h.pass.drawCalls != 0 {
		t.Errorf("draw calls = %d, want 0", h.pass.drawCalls)
	}
}

func TestLayer_RenderRestoresState(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.layer.Attach(h.ctx); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	prior := *h.state
	h.layer.Render(h.ctx, visibleFrame())
	if *h.state != prior {
		t.Errorf("render state after Render = %+v, want %+v", *h.state, prior)
	}
}

func TestLayer_SetIntensityTakesEffectNextFrame(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.layer.Attach(h.ctx); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	h.layer.Render(h.ctx, visibleFrame())
	h.layer.SetIntensity(5)
	h.layer.Render(h.ctx, visibleFrame())

	if len(h.resources.uploads) != 2 {
		t.Fatalf("uploads = %d, want 2", len(h.resources.uploads))
	}
	// Intensity lives at byte offset 108 of the uniform block.
	if got := f32At(h.resources.uploads[0], 108); got != DefaultIntensity {
		t.Errorf("first frame intensity = %v, want %v", got, DefaultIntensity)
	}
	if got := f32At(h.resources.uploads[1], 108); got != 5 {
		t.Errorf("second frame intensity = %v, want 5", got)
	}
}

func TestLayer_DetachReleasesAndUnregisters(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.layer.Attach(h.ctx); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	h.layer.Detach(h.ctx)

	if h.layer.State() != LayerDetached {
		t.Errorf("state = %v, want detached", h.layer.State())
	}
	if h.resources.destroyed != 1 {
		t.Errorf("Destroy calls = %d, want 1", h.resources.destroyed)
	}
	if len(h.registry.removed) != 1 {
		t.Errorf("registry removals = %d, want 1", len(h.registry.removed))
	}

	h.layer.Render(h.ctx, visibleFrame())
	if h.pass.drawCalls != 0 {
		t.Errorf("draw calls after detach = %d, want 0", h.pass.drawCalls)
	}

	// Repeated detach must not double-release.
	h.layer.Detach(h.ctx)
	if h.resources.destroyed != 1 {
		t.Errorf("Destroy calls after second Detach = %d, want 1", h.resources.destroyed)
	}
}

func TestLayer_ReattachBuildsFreshResources(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.layer.Attach(h.ctx); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	first := h.resources
	h.layer.Detach(h.ctx)

	if err := h.layer.Attach(h.ctx); err != nil {
		t.Fatalf("re-Attach: %v", err)
	}
	if h.factory != 2 {
		t.Errorf("factory invocations = %d, want 2", h.factory)
	}
	if h.resources == first {
		t.Error("re-attach reused the old resources")
	}
	h.layer.Render(h.ctx, visibleFrame())
	if h.pass.drawCalls != 1 {
		t.Errorf("draw calls after re-attach = %d, want 1", h.pass.drawCalls)
	}
}

func TestLayer_CompileFailureDegradesToNoop(t *testing.T) {
	h := newHarness(t, ErrCompileFailure)
	err := h.layer.Attach(h.ctx)
	if !errors.Is(err, ErrCompileFailure) {
		t.Fatalf("Attach = %v, want ErrCompileFailure", err)
	}
	// The layer stays attached and registered, but renders nothing.
	if h.layer.State() != LayerAttached {
		t.Errorf("state = %v, want attached", h.layer.State())
	}
	if len(h.registry.inserted) != 1 {
		t.Errorf("registry insertions = %d, want 1", len(h.registry.inserted))
	}
	h.layer.Render(h.ctx, visibleFrame())
	if h.pass.drawCalls != 0 {
		t.Errorf("draw calls = %d, want 0", h.pass.drawCalls)
	}
	// Detach still unregisters cleanly.
	h.layer.Detach(h.ctx)
	if len(h.registry.removed) != 1 {
		t.Errorf("registry removals = %d, want 1", len(h.registry.removed))
	}
}

func TestLayer_DensityBakedIntoShader(t *testing.T) {
	h := newHarness(t, nil, WithDensity(0.4))
	if err := h.layer.Attach(h.ctx); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if !strings.Contains(h.sources[0], "const DENSITY: f32 = 0.4;") {
		t.Error("shader source does not carry the configured density")
	}
}

func TestLayerState_String(t *testing.T) {
	tests := []struct {
		state LayerState
		want  string
	}{
		{LayerUninitialized, "uninitialized"},
		{LayerAttached, "attached"},
		{LayerDetached, "detached"},
		{LayerState(99), "unknown(99)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}
