// Package shader compiles and links GLSL programs.
package shader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Source holds the stages of one program. Geometry is optional.
type Source struct {
	Vertex   string
	Geometry string
	Fragment string
}

// Program is a linked GL program. A Program that failed to build is still
// returned to callers but reports Valid() == false; passes check it and skip.
type Program struct {
	ID   uint32
	Name string

	uniforms map[string]int32
}

// Compile builds a program from src. Defines are injected right after the
// #version line of every stage. On failure the returned Program is invalid
// and the error carries the driver's info log.
func Compile(name string, src Source, defines map[string]string) (*Program, error) {
	p := &Program{Name: name, uniforms: make(map[string]int32)}

	type stage struct {
		kind uint32
		name string
		src  string
	}
	stages := []stage{
		{gl.VERTEX_SHADER, "vertex", src.Vertex},
		{gl.GEOMETRY_SHADER, "geometry", src.Geometry},
		{gl.FRAGMENT_SHADER, "fragment", src.Fragment},
	}

	var compiled []uint32
	defer func() {
		for _, s := range compiled {
			gl.DeleteShader(s)
		}
	}()
	for _, st := range stages {
		if st.src == "" {
			continue
		}
		id, err := compileShader(WithDefines(st.src, defines), st.kind, st.name)
		if err != nil {
			return p, fmt.Errorf("%s: %w", name, err)
		}
		compiled = append(compiled, id)
	}

	program := gl.CreateProgram()
	for _, s := range compiled {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		log := infoLog(program, gl.GetProgramiv, gl.GetProgramInfoLog)
		gl.DeleteProgram(program)
		return p, fmt.Errorf("%s: link: %s", name, log)
	}

	p.ID = program
	return p, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		log := infoLog(shader, gl.GetShaderiv, gl.GetShaderInfoLog)
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, log)
	}
	return shader, nil
}

func infoLog(obj uint32, getiv func(uint32, uint32, *int32), getLog func(uint32, int32, *int32, *uint8)) string {
	var logLen int32
	getiv(obj, gl.INFO_LOG_LENGTH, &logLen)
	if logLen <= 0 {
		return "(no info log)"
	}
	log := make([]byte, logLen)
	getLog(obj, logLen, nil, &log[0])
	return strings.TrimRight(string(log), "\x00\n")
}

// WithDefines inserts "#define KEY VALUE" lines after the #version directive,
// in key order. Sources without a #version line get the defines prepended.
func WithDefines(src string, defines map[string]string) string {
	if len(defines) == 0 {
		return src
	}
	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "#define %s %s\n", k, defines[k])
	}

	if strings.HasPrefix(src, "#version") {
		nl := strings.IndexByte(src, '\n')
		if nl < 0 {
			return src + "\n" + b.String()
		}
		return src[:nl+1] + b.String() + src[nl+1:]
	}
	return b.String() + src
}

// Valid reports whether the program linked.
func (p *Program) Valid() bool {
	return p != nil && p.ID != 0
}

// Use binds the program.
func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

// Uniform returns the cached location of a uniform, -1 if inactive.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.ID, gl.Str(name+"\x00"))
	p.uniforms[name] = loc
	return loc
}

// SetInt sets an int or sampler uniform.
func (p *Program) SetInt(name string, v int32) {
	gl.Uniform1i(p.Uniform(name), v)
}

// SetFloat sets a float uniform.
func (p *Program) SetFloat(name string, v float32) {
	gl.Uniform1f(p.Uniform(name), v)
}

// SetVec3 sets a vec3 uniform.
func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	gl.Uniform3f(p.Uniform(name), v[0], v[1], v[2])
}

// SetMat4 sets a mat4 uniform.
func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	gl.UniformMatrix4fv(p.Uniform(name), 1, false, &m[0])
}

// Delete releases the GL program.
func (p *Program) Delete() {
	if p.Valid() {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}
