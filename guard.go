package starfield

import (
	"github.com/gogpu/gputypes"
	types "github.com/gogpu/gputypes"
)

// stateGuard snapshots the host's mutable render state so the sky draw can
// be wrapped without leaking state changes. Capture before mutating,
// restore deferred so every exit path puts things back.
type stateGuard struct {
	state        RenderState
	pipeline     any
	depthCompare gputypes.CompareFunction
	depthWrite   bool
	blendEnabled bool
	blendSrc     gputypes.BlendFactor
	blendDst     gputypes.BlendFactor
}

func captureState(s RenderState) stateGuard {
	g := stateGuard{
		state:        s,
		pipeline:     s.Pipeline(),
		depthCompare: s.DepthCompare(),
		depthWrite:   s.DepthWriteEnabled(),
		blendEnabled: s.BlendEnabled(),
	}
	g.blendSrc, g.blendDst = s.BlendFunc()
	return g
}

func (g stateGuard) restore() {
	g.state.SetPipeline(g.pipeline)
	g.state.SetDepthCompare(g.depthCompare)
	g.state.SetDepthWriteEnabled(g.depthWrite)
	g.state.SetBlendEnabled(g.blendEnabled)
	g.state.SetBlendFunc(g.blendSrc, g.blendDst)
}

// applySkyDrawState configures the state for the fullscreen sky quad: the
// quad sits on the far plane so the depth test always passes and writes
// nothing, and stars blend over the clear color with straight alpha.
func applySkyDrawState(s RenderState) {
	s.SetDepthCompare(gputypes.CompareFunctionAlways)
	s.SetDepthWriteEnabled(false)
	s.SetBlendEnabled(true)
	s.SetBlendFunc(types.BlendFactorSrcAlpha, types.BlendFactorOneMinusSrcAlpha)
}
