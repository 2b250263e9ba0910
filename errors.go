package starfield

import (
	"github.com/gogpu/starfield/internal/gpu"
)

// Sentinel errors returned from Attach. Both are non-fatal: the layer stays
// registered but renders nothing until a successful re-attach.
var (
	// ErrCompileFailure indicates the WGSL shader source was rejected by
	// the shader compiler. With a fixed source this normally points at a
	// driver or toolchain problem, not at host input.
	ErrCompileFailure = gpu.ErrCompile

	// ErrLinkFailure indicates shader compilation succeeded but the render
	// pipeline could not be created from it.
	ErrLinkFailure = gpu.ErrLink
)
