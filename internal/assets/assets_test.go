package assets

import (
	"os"
	"path/filepath"
	"testing"
)

// tgaImage is a 2x1 uncompressed 24-bit Targa image.
var tgaImage = []byte{
	0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	2, 0, 1, 0, 24, 0x20,
	255, 0, 0, 0, 255, 0,
}

// bmpImage is a 1x1 24-bit Windows bitmap.
var bmpImage = []byte{
	'B', 'M', 58, 0, 0, 0, 0, 0, 0, 0, 54, 0, 0, 0,
	40, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 24, 0,
	0, 0, 0, 0, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 255, 0,
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLargeName(t *testing.T) {
	dir := filepath.FromSlash("/art")
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{filepath.Join(dir, "body_sm_d.tga"), filepath.Join(dir, "body_lg_d.tga"), true},
		{filepath.Join(dir, "Body_SM_D.TGA"), filepath.Join(dir, "body_lg_d.tga"), true},
		{filepath.Join(dir, "body_d.tga"), "", false},
		{filepath.Join(dir, "body_lg_d.tga"), "", false},
	}
	for _, tt := range tests {
		got, ok := LargeName(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("LargeName(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLargeVariants(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "coat_sm_d.tga")
	writeFile(t, small, tgaImage)
	writeFile(t, filepath.Join(dir, "coat_lg_d.tga"), tgaImage)

	// large variant exists but is not a readable Targa file
	broken := filepath.Join(dir, "hat_sm_d.tga")
	writeFile(t, broken, tgaImage)
	writeFile(t, filepath.Join(dir, "hat_lg_d.tga"), []byte{1, 2})

	// formats without a header decoder only need to exist
	dds := filepath.Join(dir, "belt_sm_n.dds")
	writeFile(t, filepath.Join(dir, "belt_lg_n.dds"), []byte("DDS "))

	bitmap := filepath.Join(dir, "cape_sm_d.bmp")
	writeFile(t, filepath.Join(dir, "cape_lg_d.bmp"), bmpImage)
	badBitmap := filepath.Join(dir, "glove_sm_d.bmp")
	writeFile(t, filepath.Join(dir, "glove_lg_d.bmp"), []byte("BM"))

	missing := filepath.Join(dir, "shoe_sm_d.tga")
	plain := filepath.Join(dir, "skin_d.tga")

	m := NewManager(nil)
	defer m.Close()

	got := m.LargeVariants([]string{small, broken, dds, bitmap, badBitmap, missing, plain})
	want := map[string]string{
		small:  filepath.Join(dir, "coat_lg_d.tga"),
		dds:    filepath.Join(dir, "belt_lg_n.dds"),
		bitmap: filepath.Join(dir, "cape_lg_d.bmp"),
	}
	if len(got) != len(want) {
		t.Fatalf("LargeVariants = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("LargeVariants[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestLargeVariantCached(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "coat_sm_d.tga")
	large := filepath.Join(dir, "coat_lg_d.tga")
	writeFile(t, large, tgaImage)

	m := NewManager(nil)
	if _, ok := m.LargeVariant(small); !ok {
		t.Fatal("expected a large variant")
	}

	// later probes are answered from the cache
	if err := os.Remove(large); err != nil {
		t.Fatal(err)
	}
	if got, ok := m.LargeVariant(small); !ok || got != large {
		t.Errorf("cached LargeVariant = %q, %v", got, ok)
	}

	hits, misses := m.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d hits, %d misses, want 1, 1", hits, misses)
	}

	m.Close()
	if _, ok := m.LargeVariant(small); ok {
		t.Error("after Close the probe should run again")
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	if _, ok := c.Get("a"); ok {
		t.Error("empty cache should miss")
	}
	c.Set("a", Probe{Path: "b", Found: true})
	if r, ok := c.Get("a"); !ok || r.Path != "b" || !r.Found {
		t.Errorf("Get(a) = %+v, %v", r, ok)
	}
	c.Clear()
	if hits, misses := c.Stats(); hits != 0 || misses != 0 {
		t.Errorf("Clear should reset stats, got %d, %d", hits, misses)
	}
}
