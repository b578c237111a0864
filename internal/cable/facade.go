package cable

import "sync"

// RenderShape describes how an appearance is drawn.
type RenderShape string

const (
	// RenderModel is a regular full block model.
	RenderModel RenderShape = "model"

	// RenderEntity is drawn by its own renderer.
	RenderEntity RenderShape = "entity"

	// RenderInvisible is not drawn.
	RenderInvisible RenderShape = "invisible"
)

// Appearance describes a visual a facade may reference.
type Appearance struct {
	Ref         string      `yaml:"ref" json:"ref"`
	RenderShape RenderShape `yaml:"render_shape" json:"render_shape"`
	Solid       bool        `yaml:"solid" json:"solid"`
	HasBehavior bool        `yaml:"has_behavior" json:"has_behavior"`
}

// AppearanceCatalog resolves appearance references.
type AppearanceCatalog interface {
	Appearance(ref string) (Appearance, bool)
}

// FacadeType classifies a facade candidate.
type FacadeType int

const (
	// NotABlock means the reference names no known appearance.
	NotABlock FacadeType = iota

	// InvalidBlock is a known appearance that is not an opaque, inert block.
	InvalidBlock

	// ValidBlock may be used as a facade.
	ValidBlock
)

func (t FacadeType) String() string {
	switch t {
	case InvalidBlock:
		return "invalid_block"
	case ValidBlock:
		return "valid_block"
	default:
		return "not_a_block"
	}
}

// Classify resolves ref in catalog and reports whether it can be a facade.
func Classify(catalog AppearanceCatalog, ref string) FacadeType {
	if catalog == nil || ref == "" {
		return NotABlock
	}
	a, ok := catalog.Appearance(ref)
	if !ok {
		return NotABlock
	}
	if a.RenderShape != RenderModel || !a.Solid || a.HasBehavior {
		return InvalidBlock
	}
	return ValidBlock
}

// MapCatalog is an in-memory AppearanceCatalog. Safe for concurrent use.
type MapCatalog struct {
	mu    sync.RWMutex
	items map[string]Appearance
}

// NewMapCatalog creates a catalog holding appearances.
func NewMapCatalog(appearances ...Appearance) *MapCatalog {
	c := &MapCatalog{items: make(map[string]Appearance, len(appearances))}
	for _, a := range appearances {
		c.items[a.Ref] = a
	}
	return c
}

// Add registers a, replacing any appearance with the same ref.
func (c *MapCatalog) Add(a Appearance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[a.Ref] = a
}

// Appearance implements AppearanceCatalog.
func (c *MapCatalog) Appearance(ref string) (Appearance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.items[ref]
	return a, ok
}

// Len returns the number of appearances.
func (c *MapCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
