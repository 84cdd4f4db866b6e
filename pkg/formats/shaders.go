package formats

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// Shader template errors.
var (
	ErrShaderTemplateMissing = errors.New("shader template library not found")
	ErrInvalidShaderTemplate = errors.New("invalid shader template library")
	ErrUnknownShader         = errors.New("unknown shader")
)

// TemplateField is one child element of a shader template.
// An empty Text marks a placeholder filled from the material.
type TemplateField struct {
	Tag  string
	Text string
}

// ShaderTemplate lists the fields a material block of one shader carries, in file order.
type ShaderTemplate struct {
	Name   string
	Fields []TemplateField
}

// ShaderLibrary is a parsed shader template file.
type ShaderLibrary struct {
	templates map[string]*ShaderTemplate
	names     []string
}

type xmlElement struct {
	XMLName  xml.Name
	Text     string       `xml:",chardata"`
	Children []xmlElement `xml:",any"`
}

// LoadShaderLibrary reads a shader template file from disk.
func LoadShaderLibrary(path string) (*ShaderLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrShaderTemplateMissing, path)
		}
		return nil, fmt.Errorf("reading shader templates: %w", err)
	}
	lib, err := ParseShaderLibrary(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib, nil
}

// ParseShaderLibrary parses root > materials > material elements.
// Each material's <shader> child names the template.
func ParseShaderLibrary(r io.Reader) (*ShaderLibrary, error) {
	var root xmlElement
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShaderTemplate, err)
	}

	lib := &ShaderLibrary{templates: make(map[string]*ShaderTemplate)}
	for _, group := range root.Children {
		if group.XMLName.Local != "materials" {
			continue
		}
		for _, mat := range group.Children {
			if mat.XMLName.Local != "material" {
				continue
			}
			tpl := &ShaderTemplate{}
			for _, f := range mat.Children {
				text := strings.TrimSpace(f.Text)
				tpl.Fields = append(tpl.Fields, TemplateField{Tag: f.XMLName.Local, Text: text})
				if f.XMLName.Local == "shader" {
					tpl.Name = text
				}
			}
			if tpl.Name == "" {
				return nil, fmt.Errorf("%w: material without a shader name", ErrInvalidShaderTemplate)
			}
			if _, dup := lib.templates[tpl.Name]; dup {
				continue
			}
			lib.templates[tpl.Name] = tpl
			lib.names = append(lib.names, tpl.Name)
		}
	}
	sort.Strings(lib.names)
	return lib, nil
}

// Names returns the shader names in sorted order.
func (l *ShaderLibrary) Names() []string {
	return append([]string(nil), l.names...)
}

// Lookup returns the template of a shader.
func (l *ShaderLibrary) Lookup(name string) (*ShaderTemplate, error) {
	tpl, ok := l.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShader, name)
	}
	return tpl, nil
}
