package starfield

import (
	"strings"
	"testing"

	"github.com/gogpu/naga"
)

func TestShaderSource_EntryPoints(t *testing.T) {
	src := ShaderSource(DefaultDensity, DefaultStarSizeBase, DefaultStarSizeRange)
	for _, want := range []string{
		"fn vs_main", "fn fs_main",
		"struct Uniforms", "@group(0) @binding(0)",
		"inv_proj: mat4x4<f32>",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("shader source missing %q", want)
		}
	}
}

func TestFragmentSource_BakesParameters(t *testing.T) {
	src := FragmentSource(0.15, 0.015, 0.025)
	for _, want := range []string{
		"const DENSITY: f32 = 0.15;",
		"const STAR_SIZE_BASE: f32 = 0.015;",
		"const STAR_SIZE_RANGE: f32 = 0.025;",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("fragment source missing %q", want)
		}
	}
}

func TestFragmentSource_HashConstants(t *testing.T) {
	// The four hash coefficient pairs must match the CPU implementation.
	src := FragmentSource(DefaultDensity, DefaultStarSizeBase, DefaultStarSizeRange)
	for _, want := range []string{
		"vec2<f32>(12.9898, 78.233)",
		"vec2<f32>(39.3468, 11.1355)",
		"vec2<f32>(73.1566, 52.2348)",
		"vec2<f32>(93.9898, 67.345)",
		"43758.5453",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("fragment source missing hash constant %q", want)
		}
	}
}

func TestShaderSource_CompilesWithNaga(t *testing.T) {
	src := ShaderSource(DefaultDensity, DefaultStarSizeBase, DefaultStarSizeRange)
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		if strings.Contains(err.Error(), "not yet implemented") {
			t.Skipf("Skipping: naga limitation: %v", err)
		}
		t.Fatalf("naga.Compile: %v", err)
	}
	if len(spirvBytes) == 0 {
		t.Fatal("naga.Compile returned empty SPIR-V")
	}
}

func TestWGSLFloat(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want string
	}{
		{"fraction", 0.15, "0.15"},
		{"whole number gains point", 1, "1.0"},
		{"zero gains point", 0, "0.0"},
		{"small", 0.015, "0.015"},
		{"exponent form kept", 0.0000215, "2.15e-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wgslFloat(tt.v); got != tt.want {
				t.Errorf("wgslFloat(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}
