package crunch

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestCleanIntermediates(t *testing.T) {
	dir := t.TempDir()
	temp := []string{
		"body.cmeshx",
		"body.rigx",
		"rock.smeshx",
		"body_high.matlibx",
		"body_d.cvbm_pc",
		filepath.Join("output", "body.ccmesh_pc.log"),
	}
	keep := []string{
		"body.gltf",
		"body_pc.morphx",
		"body_d.tga",
		filepath.Join("output", "body.ccmesh_pc"),
		filepath.Join("logs", "mesh_crunch_wd_pc_body.rule"),
	}
	for _, name := range append(append([]string(nil), temp...), keep...) {
		touch(t, filepath.Join(dir, name))
	}

	removed, err := CleanIntermediates(dir, nil)
	if err != nil {
		t.Fatalf("CleanIntermediates: %v", err)
	}
	if len(removed) != len(temp) {
		sort.Strings(removed)
		t.Errorf("removed %v", removed)
	}
	for _, name := range temp {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should be removed", name)
		}
	}
	for _, name := range keep {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should be kept: %v", name, err)
		}
	}
}

func TestCleanIntermediatesMissingOutput(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "rock.smeshx"))
	removed, err := CleanIntermediates(dir, nil)
	if err != nil {
		t.Fatalf("CleanIntermediates: %v", err)
	}
	if len(removed) != 1 {
		t.Errorf("removed %v", removed)
	}
}
