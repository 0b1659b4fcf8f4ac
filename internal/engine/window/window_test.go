package window

import (
	"reflect"
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestContextAttributesRequestCore46(t *testing.T) {
	want := map[sdl.GLattr]int{
		sdl.GL_CONTEXT_MAJOR_VERSION: 4,
		sdl.GL_CONTEXT_MINOR_VERSION: 6,
		sdl.GL_CONTEXT_PROFILE_MASK:  sdl.GL_CONTEXT_PROFILE_CORE,
		sdl.GL_DOUBLEBUFFER:          1,
		sdl.GL_DEPTH_SIZE:            24,
	}
	got := map[sdl.GLattr]int{}
	for _, a := range contextAttributes(Config{}) {
		got[a.attr] = a.value
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("attributes = %v, want %v", got, want)
	}
}

func TestContextAttributesDebugFlag(t *testing.T) {
	hasDebug := func(cfg Config) bool {
		for _, a := range contextAttributes(cfg) {
			if a.attr == sdl.GL_CONTEXT_FLAGS && a.value&sdl.GL_CONTEXT_DEBUG_FLAG != 0 {
				return true
			}
		}
		return false
	}
	if hasDebug(Config{}) {
		t.Error("debug flag requested without DebugContext")
	}
	if !hasDebug(Config{DebugContext: true}) {
		t.Error("debug flag missing with DebugContext")
	}
}

func TestMissingExtensions(t *testing.T) {
	supported := map[string]bool{"GL_ARB_bindless_texture": true}
	lookup := func(ext string) bool { return supported[ext] }

	if m := missingExtensions(RequiredExtensions, lookup); len(m) != 0 {
		t.Errorf("expected nothing missing, got %v", m)
	}

	m := missingExtensions([]string{"GL_ARB_bindless_texture", "GL_NV_mesh_shader"}, lookup)
	if len(m) != 1 || m[0] != "GL_NV_mesh_shader" {
		t.Errorf("missing = %v, want [GL_NV_mesh_shader]", m)
	}
}
