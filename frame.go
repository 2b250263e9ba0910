package starfield

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/starfield/internal/gpu"
)

// LngLat is a geographic coordinate in degrees.
type LngLat struct {
	Lng, Lat float64
}

// FrameTransform is the per-frame camera snapshot the host hands to Render.
// The layer only reads it; nothing is retained across frames.
type FrameTransform struct {
	// Projection is the globe's combined model-view-projection matrix.
	Projection Mat4

	// InverseProjection is the inverse of Projection. The fragment shader
	// uses it to unproject screen points into world-space view rays.
	InverseProjection Mat4

	// WorldSize is the map's world extent in projected units at the
	// current zoom. The globe circumference equals WorldSize, so the
	// globe radius is WorldSize / 2pi.
	WorldSize float64

	// Center is the map center in degrees.
	Center LngLat

	// Camera orientation in radians.
	Pitch, Bearing, Roll float64

	// ProjectionTransition is the globe/flat morph factor in [0, 1].
	// 0 means fully flat: the sky is not visible and the layer skips the
	// frame entirely.
	ProjectionTransition float64
}

// FrameUniforms are the values derived from a FrameTransform that the
// fragment shader consumes each frame.
type FrameUniforms struct {
	// InverseProjection is passed through for per-pixel unprojection.
	InverseProjection Mat4

	// GlobePosition is the globe center in the view ray's coordinate
	// space: the world origin projected through the MVP (with perspective
	// divide) and unprojected back through the inverse matrix.
	GlobePosition Vec3

	// GlobeRadius is the globe radius in projected units, scaled by the
	// cosine of the center latitude.
	GlobeRadius float64

	// GlobeCenter is the map center in radians.
	GlobeCenter GlobeCenter

	// Camera carries (pitch, -bearing, -roll): the ray rotation undoes
	// the camera orientation, so bearing and roll flip sign while pitch
	// keeps the host's convention.
	Camera CameraAngles

	// Intensity is the layer's current brightness multiplier.
	Intensity float64
}

// DeriveFrameUniforms extracts shader uniforms from a frame snapshot.
func DeriveFrameUniforms(ft FrameTransform, intensity float64) FrameUniforms {
	origin := ft.Projection.MulVec4(Vec4{0, 0, 0, 1}).PerspectiveDivide()
	pos := ft.InverseProjection.MulVec4(Vec4{origin.X, origin.Y, origin.Z, 1}).PerspectiveDivide()

	latRad := ft.Center.Lat * math.Pi / 180
	return FrameUniforms{
		InverseProjection: ft.InverseProjection,
		GlobePosition:     pos,
		GlobeRadius:       ft.WorldSize / (2 * math.Pi) * math.Cos(latRad),
		GlobeCenter: GlobeCenter{
			Lng: ft.Center.Lng * math.Pi / 180,
			Lat: latRad,
		},
		Camera: CameraAngles{
			Pitch:   ft.Pitch,
			Bearing: -ft.Bearing,
			Roll:    -ft.Roll,
		},
		Intensity: intensity,
	}
}

// Pack serializes the uniforms into the WGSL uniform block layout:
//
//	inv_proj      mat4x4<f32>  offset   0  (column-major)
//	globe_position vec3<f32>   offset  64
//	globe_radius   f32         offset  76
//	globe_center   vec2<f32>   offset  80
//	(padding)                  offset  88
//	camera_angles  vec3<f32>   offset  96
//	intensity      f32         offset 108
//
// Total gpu.UniformSize (112) bytes, little-endian float32.
func (u FrameUniforms) Pack() []byte {
	buf := make([]byte, gpu.UniformSize)
	for i, v := range u.InverseProjection {
		putF32(buf[i*4:], v)
	}
	putF32(buf[64:], u.GlobePosition.X)
	putF32(buf[68:], u.GlobePosition.Y)
	putF32(buf[72:], u.GlobePosition.Z)
	putF32(buf[76:], u.GlobeRadius)
	putF32(buf[80:], u.GlobeCenter.Lng)
	putF32(buf[84:], u.GlobeCenter.Lat)
	// Bytes 88..95 are padding before the 16-byte aligned vec3.
	putF32(buf[96:], u.Camera.Pitch)
	putF32(buf[100:], u.Camera.Bearing)
	putF32(buf[104:], u.Camera.Roll)
	putF32(buf[108:], u.Intensity)
	return buf
}

func putF32(b []byte, v float64) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
}
