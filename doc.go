// Package starfield implements a procedural starry-sky background layer
// for globe map renderers.
//
// The layer draws a fullscreen quad behind the globe. For every pixel the
// fragment shader unprojects the screen point into a world-space view ray,
// rotates it through the camera and globe-center orientation, converts it
// to spherical longitude/latitude, and evaluates a hash-based star field on
// a fixed spherical grid. The same math is available on the CPU through
// [StarField] and [SoftwareRenderer], which keeps the shader testable and
// gives hosts without a GPU device a fallback path.
//
// The star pattern is deterministic: it depends only on the ray direction
// and the configured density, never on time or frame count. Camera motion
// therefore slides a stable sky across the screen instead of re-rolling it.
//
// Hosts integrate through [Layer]: Attach compiles the shader and creates
// GPU resources, Render draws one quad per frame (skipped entirely while
// the globe projection transition is zero), Detach releases everything.
// The host's mutable render state is snapshotted before the draw and
// restored afterwards, so the layer is invisible to surrounding draw code.
package starfield
