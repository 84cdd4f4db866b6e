package convert

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/sr-convert/pkg/formats"
	"github.com/Faultbox/sr-convert/pkg/scene"
)

// textureChannels maps authoring texture channels onto material slots, in the
// order textures are discovered.
var textureChannels = []struct {
	channel string
	slot    func(m *formats.Material) *string
}{
	{"DiffuseColor", func(m *formats.Material) *string { return &m.DiffuseMap }},
	{"NormalMap", func(m *formats.Material) *string { return &m.NormalMap }},
	{"Bump", func(m *formats.Material) *string { return &m.NormalMap }},
	{"SpecularColor", func(m *formats.Material) *string { return &m.SpecularMap }},
	{"AmbientColor", func(m *formats.Material) *string { return &m.SphereMap1 }},
	{"DisplacementColor", func(m *formats.Material) *string { return &m.SphereMap2 }},
	{"TransparentColor", func(m *formats.Material) *string { return &m.BlendMap }},
	{"EmissiveColor", func(m *formats.Material) *string { return &m.GlowMaskMap }},
}

// CollectMaterials builds the materials of a mesh node and returns them with
// the unique authored textures in discovery order. A slot that is already
// filled keeps its first texture.
func CollectMaterials(node *scene.Node) ([]*formats.Material, []string) {
	var (
		materials []*formats.Material
		textures  []string
		seen      = make(map[string]bool)
	)
	for i, src := range node.Materials {
		if src == nil {
			continue
		}
		m := formats.NewMaterial(i, src.Name)
		for _, ch := range textureChannels {
			path := src.Textures[ch.channel]
			if path == "" {
				continue
			}
			slot := ch.slot(m)
			if *slot != "" {
				continue
			}
			*slot = path
			if !seen[path] {
				seen[path] = true
				textures = append(textures, path)
			}
		}
		materials = append(materials, m)
	}
	return materials, textures
}

// AssignShaders attaches a shader template to every material: the one assigned
// to the material's name, otherwise the fallback.
func AssignShaders(materials []*formats.Material, lib *formats.ShaderLibrary, assignments map[string]string, fallback string) error {
	for _, m := range materials {
		name := assignments[m.Name]
		if name == "" {
			name = fallback
		}
		if name == "" {
			return errors.Wrapf(formats.ErrMissingShader, "material %q", m.Name)
		}
		if lib == nil {
			return errors.Wrapf(formats.ErrShaderTemplateMissing, "material %q", m.Name)
		}
		tpl, err := lib.Lookup(name)
		if err != nil {
			return errors.Wrapf(err, "material %q", m.Name)
		}
		m.Shader = name
		m.Template = tpl
	}
	return nil
}
