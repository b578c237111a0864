package layout

import "github.com/nerrad567/gray-logic-bus/internal/cable"

// Catalog is the appearance catalog declared by a layout file.
type Catalog struct {
	*cable.MapCatalog
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{MapCatalog: cable.NewMapCatalog()}
}

var _ cable.AppearanceCatalog = (*Catalog)(nil)
