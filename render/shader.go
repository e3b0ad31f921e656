package render

import (
	"strings"
)

// ShaderSource uniquely owns the source text of one shader stage. It cannot
// be duplicated; ownership is transferred with Move, which leaves the old
// value invalid. Reading a moved-from source panics.
type ShaderSource struct {
	code  string
	valid bool
}

func NewShaderSource(code string) ShaderSource {
	return ShaderSource{code: code, valid: true}
}

// Move transfers ownership of the source text out of s.
func (s *ShaderSource) Move() ShaderSource {
	if !s.valid {
		panic("lumen/render: move of moved-from shader source")
	}
	moved := ShaderSource{code: s.code, valid: true}
	s.code = ""
	s.valid = false
	return moved
}

func (s *ShaderSource) Valid() bool { return s.valid }

func (s *ShaderSource) Code() string {
	if !s.valid {
		panic("lumen/render: read of moved-from shader source")
	}
	return s.code
}

// ShaderVariant accumulates definition strings that specialize a shader for
// one subpass instance (light counts, feature flags). A definition is a
// "NAME value" pair; no syntax validation happens here, malformed strings
// surface as a shader compilation failure downstream.
type ShaderVariant struct {
	definitions []string
}

func (v *ShaderVariant) AddDefinition(definition string) {
	v.definitions = append(v.definitions, definition)
}

func (v *ShaderVariant) Definitions() []string {
	return v.definitions
}

// Preamble renders the definitions as WGSL const declarations, prepended to
// the stage sources before module creation.
func (v *ShaderVariant) Preamble() string {
	var b strings.Builder
	for _, def := range v.definitions {
		name, value, found := strings.Cut(def, " ")
		if !found {
			value = "1"
		}
		b.WriteString("const ")
		b.WriteString(name)
		b.WriteString(" = ")
		b.WriteString(value)
		b.WriteString(";\n")
	}
	return b.String()
}
