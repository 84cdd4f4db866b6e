package crunch

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/Faultbox/sr-convert/internal/convert"
	"github.com/Faultbox/sr-convert/pkg/formats"
)

// Rules builds the crunch rules for the files written for one mesh, in run
// order: rig, mesh, material library, morph, one rule per texture, then the
// mesh peg and the material library peg.
func Rules(out *convert.Outputs, platform string) ([]*formats.Rule, error) {
	var rules []*formats.Rule
	add := func(filename, kind string, textures []string) error {
		rule, err := formats.BuildRule(filename, kind, textures, platform)
		if err != nil {
			return errors.Wrapf(err, "rule for %s", filename)
		}
		rules = append(rules, rule)
		return nil
	}

	docs := []struct {
		path, kind string
	}{
		{out.Rig, formats.ExtRig},
		{out.Mesh, filepath.Ext(out.Mesh)},
		{out.Matlib, formats.ExtMaterialLib},
		{out.Morph, formats.ExtMorph},
	}
	for _, d := range docs {
		if d.path == "" {
			continue
		}
		if err := add(d.path, d.kind, nil); err != nil {
			return nil, err
		}
	}

	if out.Mesh == "" && out.Matlib == "" {
		return rules, nil
	}

	// Texture rules are rooted next to whichever document was written.
	anchor := out.Mesh
	if anchor == "" {
		anchor = out.Matlib
	}
	for _, tex := range out.Textures {
		if err := add(anchor, formats.ExtTexture, []string{tex}); err != nil {
			return nil, err
		}
	}
	if out.Mesh != "" && len(out.Authored) > 0 {
		if err := add(out.Mesh, formats.ExtPeg, out.Authored); err != nil {
			return nil, err
		}
	}
	if out.Matlib != "" && len(out.PegTextures) > 0 {
		if err := add(out.Matlib, formats.ExtPeg, out.PegTextures); err != nil {
			return nil, err
		}
	}
	return rules, nil
}
