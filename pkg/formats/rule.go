package formats

import (
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Crunch rule directories, created next to the converted file.
const (
	OutputDir = "output"
	LogsDir   = "logs"
)

// DefaultPlatform is the only platform the crunchers are driven for.
const DefaultPlatform = "pc"

var resourceTypes = map[string]string{
	ExtMaterialLib: "material_library",
	ExtCharacter:   "character_mesh",
	ExtRig:         "rig",
	ExtPeg:         "texture_target",
	ExtTexture:     "texture",
	ExtStatic:      "static_mesh",
	ExtMorph:       "morph",
}

// crunchTargets lists the crunched output suffixes per intermediate extension.
// Downstream tooling matches on these exact strings.
var crunchTargets = map[string][]string{
	ExtMaterialLib: {".matlib_"},
	ExtCharacter:   {".ccmesh_", ".gcmesh_", ".morph_key_"},
	ExtRig:         {".rig_"},
	ExtPeg:         {".cpeg_", ".gpeg_"},
	ExtTexture:     {".cvbm_", ".gvbm_", ".acl_"},
	ExtStatic:      {".csmesh_", ".gsmesh_"},
	ExtMorph:       {".cmorph_", ".gmorph_"},
}

var crunchNames = map[string]string{
	ExtRig:         "rig_cruncher_wd_",
	ExtCharacter:   "mesh_crunch_wd_",
	ExtPeg:         "peg_assemble_wd_",
	ExtMaterialLib: "material_library_crunch_wd_",
	ExtTexture:     "texture_crunch_wd_",
	ExtStatic:      "mesh_crunch_wd_",
	ExtMorph:       "morph_crunch_wd_",
}

// pegSourceTypes are the crunched texture suffixes a peg assembles.
var pegSourceTypes = []string{".cvbm_", ".gvbm_"}

// CrunchTargets returns the crunched output suffixes of an intermediate extension.
func CrunchTargets(kind string) []string {
	return append([]string(nil), crunchTargets[kind]...)
}

// ResourceType returns the cruncher resource name of an intermediate extension.
func ResourceType(kind string) (string, bool) {
	r, ok := resourceTypes[kind]
	return r, ok
}

// Rule is a crunch rule document.
type Rule struct {
	XMLName          xml.Name      `xml:"ctg"`
	Platforms        RulePlatforms `xml:"in_platforms"`
	Log              string        `xml:"log"`
	WarningsAsErrors bool          `xml:"warnings_as_errors"`
	ErrorsAreFatal   bool          `xml:"errors_are_fatal"`

	// Path is where the rule file belongs: logs/<cruncher><platform>_<base>.rule.
	Path string `xml:"-"`
}

// RulePlatforms wraps the platform block.
type RulePlatforms struct {
	Platform RulePlatform `xml:"platform"`
}

// RulePlatform names the platform and lists the cruncher inputs and outputs.
type RulePlatform struct {
	Name    string   `xml:",chardata"`
	Sources []string `xml:"source"`
	Targets []string `xml:"target"`
}

func baseNoExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BuildRule describes how to crunch filename as the given kind (an intermediate
// extension). Texture rules take one texture, peg rules take every texture of
// the peg; other kinds ignore textures. Paths are rooted at filename's directory.
func BuildRule(filename, kind string, textures []string, platform string) (*Rule, error) {
	resource, ok := resourceTypes[kind]
	if !ok {
		return nil, fmt.Errorf("no crunch rule for %q", kind)
	}
	if platform == "" {
		platform = DefaultPlatform
	}
	dir := filepath.Dir(filename)
	outDir := filepath.Join(dir, OutputDir)
	logDir := filepath.Join(dir, LogsDir)

	r := &Rule{WarningsAsErrors: true, ErrorsAreFatal: true}
	p := &r.Platforms.Platform
	p.Name = platform

	var base string
	switch kind {
	case ExtTexture:
		if len(textures) != 1 {
			return nil, fmt.Errorf("texture rule needs exactly one texture, got %d", len(textures))
		}
		name := filepath.Base(textures[0])
		p.Sources = append(p.Sources, filepath.Join(dir, name))
		base = baseNoExt(name)
	case ExtMorph:
		key := strings.Replace(filepath.Base(filename), "_pc"+ExtMorph, ".morph_key_pc", 1)
		p.Sources = append(p.Sources, filepath.Join(outDir, key), filename)
		base = baseNoExt(filename)
	case ExtPeg:
		for _, tex := range textures {
			for _, data := range pegSourceTypes {
				p.Sources = append(p.Sources, filepath.Join(dir, baseNoExt(tex)+data+platform))
			}
		}
		base = baseNoExt(filename)
	default:
		p.Sources = append(p.Sources, filename)
		base = baseNoExt(filename)
	}

	for _, suffix := range crunchTargets[kind] {
		target := base + suffix + platform
		if kind == ExtTexture {
			p.Targets = append(p.Targets, filepath.Join(dir, target))
		} else {
			p.Targets = append(p.Targets, filepath.Join(outDir, target))
		}
	}

	logPrefix := "log2_"
	if kind == ExtTexture || kind == ExtPeg {
		logPrefix = "log_"
	}
	r.Log = filepath.Join(logDir, logPrefix+base+"_"+resource+".txt")
	r.Path = filepath.Join(logDir, crunchNames[kind]+platform+"_"+base+".rule")
	return r, nil
}

// WriteRule writes the rule as indented XML.
func WriteRule(w io.Writer, r *Rule) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding rule: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ReadRule parses a rule document.
func ReadRule(rd io.Reader) (*Rule, error) {
	var r Rule
	if err := xml.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding rule: %w", err)
	}
	r.Platforms.Platform.Name = strings.TrimSpace(r.Platforms.Platform.Name)
	return &r, nil
}
