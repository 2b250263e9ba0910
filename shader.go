package starfield

import (
	"fmt"
	"strconv"
	"strings"
)

// vertexSource is the fullscreen quad vertex shader. The quad's NDC corner
// positions come in through the vertex buffer; z is pinned to the far plane
// so the sky sits behind everything the globe draws.
const vertexSource = `struct Uniforms {
    inv_proj: mat4x4<f32>,
    globe_position: vec3<f32>,
    globe_radius: f32,
    globe_center: vec2<f32>,
    camera_angles: vec3<f32>,
    intensity: f32,
}

@group(0) @binding(0) var<uniform> u: Uniforms;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) ndc: vec2<f32>,
}

@vertex
fn vs_main(@location(0) position: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(position, 1.0, 1.0);
    out.ndc = position;
    return out;
}
`

// fragmentTemplate is the star-field fragment shader with the density and
// star size parameters interpolated as constants. Baking them in keeps the
// uniform block free of values that never change after attach.
const fragmentTemplate = `
const PI: f32 = 3.141592653589793;
const GRID_RESOLUTION: f32 = 200.0;
const DENSITY: f32 = %s;
const STAR_SIZE_BASE: f32 = %s;
const STAR_SIZE_RANGE: f32 = %s;

fn rotate_x(v: vec3<f32>, a: f32) -> vec3<f32> {
    let c = cos(a);
    let s = sin(a);
    return vec3<f32>(v.x, v.y * c - v.z * s, v.y * s + v.z * c);
}

fn rotate_y(v: vec3<f32>, a: f32) -> vec3<f32> {
    let c = cos(a);
    let s = sin(a);
    return vec3<f32>(v.x * c + v.z * s, v.y, -v.x * s + v.z * c);
}

fn rotate_z(v: vec3<f32>, a: f32) -> vec3<f32> {
    let c = cos(a);
    let s = sin(a);
    return vec3<f32>(v.x * c - v.y * s, v.x * s + v.y * c, v.z);
}

fn grid_hash(p: vec2<f32>, k: vec2<f32>) -> f32 {
    return fract(sin(dot(p, k)) * 43758.5453);
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let unprojected = u.inv_proj * vec4<f32>(in.ndc, 1.0, 1.0);
    var ray = normalize(unprojected.xyz / unprojected.w - u.globe_position);
    ray = rotate_x(ray, u.camera_angles.x);
    ray = rotate_y(ray, u.camera_angles.y);
    ray = rotate_z(ray, u.camera_angles.z);
    ray = rotate_x(ray, u.globe_center.y);
    ray = rotate_y(ray, u.globe_center.x);

    let lng = atan2(ray.x, ray.z);
    let lat = asin(clamp(ray.y, -1.0, 1.0));

    let uv = vec2<f32>(lng / PI * 0.5 + 0.5, lat / (PI * 0.5) * 0.5 + 0.5);
    let scaled_uv = uv * GRID_RESOLUTION;
    let grid_pos = floor(scaled_uv);

    let presence = grid_hash(grid_pos, vec2<f32>(12.9898, 78.233));
    if (presence <= 1.0 - DENSITY) {
        return vec4<f32>(0.0);
    }

    let offset = vec2<f32>(
        grid_hash(grid_pos, vec2<f32>(39.3468, 11.1355)),
        grid_hash(grid_pos, vec2<f32>(73.1566, 52.2348))
    );
    let size_hash = grid_hash(grid_pos, vec2<f32>(93.9898, 67.345));

    var delta = (fract(scaled_uv) - offset) / GRID_RESOLUTION;
    delta.x = delta.x / max(0.3, cos(lat));
    delta.y = delta.y * 2.0;

    let dist = length(delta) * GRID_RESOLUTION;
    let star_size = STAR_SIZE_BASE + STAR_SIZE_RANGE * size_hash;
    let falloff = 1.0 - smoothstep(0.0, star_size, dist);
    let strength = pow(falloff, 4.0) * (0.5 + 0.5 * size_hash);

    let alpha = clamp(strength, 0.0, 1.0);
    let rgb = vec3<f32>(strength * u.intensity);
    return vec4<f32>(rgb * alpha, alpha);
}
`

// FragmentSource returns the fragment shader WGSL with the given density
// and star size parameters baked in as constants.
func FragmentSource(density, sizeBase, sizeRange float64) string {
	return fmt.Sprintf(fragmentTemplate,
		wgslFloat(density), wgslFloat(sizeBase), wgslFloat(sizeRange))
}

// ShaderSource returns the complete WGSL module (vertex + fragment).
func ShaderSource(density, sizeBase, sizeRange float64) string {
	return vertexSource + FragmentSource(density, sizeBase, sizeRange)
}

// wgslFloat formats v as a WGSL f32 literal, keeping a decimal point so
// whole numbers don't parse as integer literals.
func wgslFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
