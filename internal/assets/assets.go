// Package assets locates the texture files a conversion references.
package assets

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ftrvxmtrx/tga"
	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const (
	smallMarker = "_sm_"
	largeMarker = "_lg_"
)

// Manager probes textures for their high resolution variants.
// Probe results are cached for the lifetime of the manager.
type Manager struct {
	cache *Cache
	log   *zap.Logger
}

// NewManager creates a new asset manager.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cache: NewCache(),
		log:   log,
	}
}

// LargeName returns the path a high resolution variant of texture would have:
// the lowercased file name with "_sm_" replaced by "_lg_". It reports false
// for textures that are not standard resolution.
func LargeName(texture string) (string, bool) {
	base := strings.ToLower(filepath.Base(texture))
	if !strings.Contains(base, smallMarker) {
		return "", false
	}
	return filepath.Join(filepath.Dir(texture), strings.Replace(base, smallMarker, largeMarker, -1)), true
}

// LargeVariant returns the high resolution variant of texture when it exists on disk.
func (m *Manager) LargeVariant(texture string) (string, bool) {
	if r, ok := m.cache.Get(texture); ok {
		return r.Path, r.Found
	}

	large, ok := LargeName(texture)
	r := Probe{}
	if ok {
		if err := checkTexture(large); err != nil {
			m.log.Debug("no large texture", zap.String("texture", texture), zap.Error(err))
		} else {
			r = Probe{Path: large, Found: true}
		}
	}
	m.cache.Set(texture, r)
	return r.Path, r.Found
}

// LargeVariants maps every texture with a usable high resolution variant to that variant.
func (m *Manager) LargeVariants(textures []string) map[string]string {
	out := make(map[string]string)
	for _, t := range textures {
		if large, ok := m.LargeVariant(t); ok {
			out[t] = large
		}
	}
	return out
}

// Close drops the probe cache.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// headerDecoders read the image header of the texture formats that can be validated.
var headerDecoders = map[string]func(io.Reader) (image.Config, error){
	".tga":  tga.DecodeConfig,
	".bmp":  bmp.DecodeConfig,
	".tif":  tiff.DecodeConfig,
	".tiff": tiff.DecodeConfig,
}

// checkTexture verifies that a texture exists. Formats with a known header
// must also decode to a non-empty image.
func checkTexture(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decode, ok := headerDecoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil
	}
	cfg, err := decode(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("%s: empty image", path)
	}
	return nil
}

// Probe is a cached probe result.
type Probe struct {
	Path  string
	Found bool
}

// Cache is a simple in-memory cache of probe results.
type Cache struct {
	data map[string]Probe
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]Probe),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (Probe, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return r, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, r Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = r
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]Probe)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
