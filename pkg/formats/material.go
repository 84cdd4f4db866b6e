package formats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMissingShader is returned when a material reaches a writer without a shader template.
var ErrMissingShader = errors.New("material is missing an assigned shader")

// Material is a mesh material with its engine slots.
// Empty texture slots fall back to the engine defaults when written.
type Material struct {
	Index    int
	Name     string
	Shader   string
	Template *ShaderTemplate

	DiffuseMap  string
	NormalMap   string
	SpecularMap string
	SphereMap1  string
	SphereMap2  string
	BlendMap    string
	GlowMaskMap string
	Texture     string

	NormalMapHeight         float64
	SpecularMapAmount       float64
	SpecularPower           float64
	SpecularPower2          float64
	SpecularAlpha           float64
	SpecularAlpha2          float64
	SpecularAlphaInterface  float64
	SpecularAlphaInterface2 float64
	SphereMapAmount         float64
	BaseOpacity             float64
	FresnelAlphaInterface   float64
	FresnelAlphaInterface2  float64
	FresnelStrength         float64
	FresnelStrength2        float64
	SelfIllumination        float64
}

// NewMaterial returns a material with the engine's scalar defaults.
func NewMaterial(index int, name string) *Material {
	return &Material{
		Index:                  index,
		Name:                   name,
		NormalMapHeight:        1,
		SpecularMapAmount:      1,
		SpecularPower:          60,
		SpecularPower2:         60,
		SpecularAlphaInterface: 1,
		SphereMapAmount:        1,
		BaseOpacity:            1,
	}
}

// Textures returns the authored texture references in slot order.
func (m *Material) Textures() []string {
	var out []string
	for _, t := range []string{m.DiffuseMap, m.NormalMap, m.SpecularMap, m.SphereMap1, m.SphereMap2, m.BlendMap, m.GlowMaskMap} {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// MaterialOptions controls how texture slots are written.
type MaterialOptions struct {
	// High selects the close-up library variant, which swaps in Large textures.
	High bool
	// Large maps a small texture path to its high resolution variant.
	Large map[string]string
}

type materialField struct {
	value   func(m *Material) string
	texture bool
	def     string
}

func texture(get func(m *Material) string, def string) materialField {
	return materialField{value: get, texture: true, def: def}
}

func scalar(get func(m *Material) float64) materialField {
	return materialField{value: func(m *Material) string { return formatScalar(get(m)) }}
}

func formatScalar(v float64) string {
	return strconv.FormatFloat(v, 'f', 5, 64)
}

var (
	diffuseMap = texture(func(m *Material) string { return m.DiffuseMap }, "missing.tga")
	normalMap  = texture(func(m *Material) string { return m.NormalMap }, "normal_blank_n.tga")
	specMap    = texture(func(m *Material) string { return m.SpecularMap }, "spec_blank_s.tga")
	sphereMap1 = texture(func(m *Material) string { return m.SphereMap1 }, "missing-grey.tga")
	sphereMap2 = texture(func(m *Material) string { return m.SphereMap2 }, "missing-grey.tga")
	blendMap   = texture(func(m *Material) string { return m.BlendMap }, "shd_whiteopaque.tga")
)

// materialFields maps shader template tags to material slots.
var materialFields = map[string]materialField{
	"Diffuse_Map_varList": diffuseMap,
	"Diffuse_Map":         diffuseMap,
	"Pattern_Map_varList": diffuseMap,
	"pattern_map":         diffuseMap,

	"Normal_Map_varList": normalMap,
	"Normal_Map":         normalMap,
	"Normal_Map_Height":  scalar(func(m *Material) float64 { return m.NormalMapHeight }),

	"material_name": {value: func(m *Material) string { return m.Name }},
	"mtl_id":        {value: func(m *Material) string { return strconv.Itoa(m.Index) }},

	"Blend_Map_varList": blendMap,
	"Blend_Map":         blendMap,

	"Fresnel_Alpha_Interface":   scalar(func(m *Material) float64 { return m.FresnelAlphaInterface }),
	"Fresnel_Alpha_Interface_2": scalar(func(m *Material) float64 { return m.FresnelAlphaInterface2 }),
	"Fresnel_Strength":          scalar(func(m *Material) float64 { return m.FresnelStrength }),
	"Fresnel_Strength_2":        scalar(func(m *Material) float64 { return m.FresnelStrength2 }),

	"Specular_Map_varList":       specMap,
	"Specular_Map":               specMap,
	"Specular_Map_Amount":        scalar(func(m *Material) float64 { return m.SpecularMapAmount }),
	"Specular_Power":             scalar(func(m *Material) float64 { return m.SpecularPower }),
	"Specular_Power_2":           scalar(func(m *Material) float64 { return m.SpecularPower2 }),
	"Specular_Alpha":             scalar(func(m *Material) float64 { return m.SpecularAlpha }),
	"Specular_Alpha_2":           scalar(func(m *Material) float64 { return m.SpecularAlpha2 }),
	"Specular_Alpha_Interface":   scalar(func(m *Material) float64 { return m.SpecularAlphaInterface }),
	"Specular_Alpha_Interface_2": scalar(func(m *Material) float64 { return m.SpecularAlphaInterface2 }),

	"Sphere_Map_varList":   sphereMap1,
	"Sphere_Map_1_varList": sphereMap1,
	"Sphere_Map_1":         sphereMap1,
	"Sphere_Map":           sphereMap1,
	"Sphere_Map_2_varList": sphereMap2,
	"Sphere_Map_2":         sphereMap2,
	"Sphere_Map_Amount":    scalar(func(m *Material) float64 { return m.SphereMapAmount }),

	"Base_Opacity":      scalar(func(m *Material) float64 { return m.BaseOpacity }),
	"shader":            {value: func(m *Material) string { return m.Shader }},
	"Texture":           texture(func(m *Material) string { return m.Texture }, "norender.tga"),
	"Self_Illumination": scalar(func(m *Material) float64 { return m.SelfIllumination }),
	"glow_Mask_Map":     texture(func(m *Material) string { return m.GlowMaskMap }, "missing.tga"),
}

// FieldValue returns the text written for a template placeholder.
// Tags the material has no slot for produce an empty value.
func (m *Material) FieldValue(tag string, opts MaterialOptions) string {
	f, ok := materialFields[tag]
	if !ok {
		return ""
	}
	v := f.value(m)
	if !f.texture {
		return v
	}
	if v == "" {
		v = f.def
	}
	if opts.High {
		if large, ok := opts.Large[v]; ok {
			v = large
		}
	}
	return TextureName(v)
}

// TextureName strips the directory from .tga references. Both slash styles
// are accepted since authored paths often come from Windows tools.
func TextureName(path string) string {
	if !strings.HasSuffix(strings.ToLower(path), ".tga") {
		return path
	}
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func writeMaterial(d *docWriter, m *Material, tabs string, opts MaterialOptions) error {
	if m.Template == nil {
		return fmt.Errorf("%w: %s", ErrMissingShader, m.Name)
	}
	for _, f := range m.Template.Fields {
		value := f.Text
		if value == "" {
			value = m.FieldValue(f.Tag, opts)
		}
		d.printf("%s<%s>%s</%s>\n", tabs, f.Tag, value, f.Tag)
	}
	return nil
}
