package catalog

import (
	"errors"
	"strings"
	"sync"
)

var ErrStoreRequired = errors.New("store name is required")

// MenuItem is one immutable catalog entry. The catalog owns item lifetime;
// names are unique within a store under whitespace/case-insensitive matching.
type MenuItem struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       int      `json:"price"`
	Image       string   `json:"image,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Allergens   []string `json:"allergens,omitempty"`
}

// Catalog is an in-memory store-name -> menu mapping guarded by a single
// coarse lock. Writes are rare (full-replace imports), so contention on the
// read paths is acceptable.
type Catalog struct {
	mu       sync.RWMutex
	menus    map[string][]MenuItem
	featured map[string]MenuItem
}

func New() *Catalog {
	return &Catalog{
		menus:    make(map[string][]MenuItem),
		featured: make(map[string]MenuItem),
	}
}

// Upsert replaces the store's full item list atomically. Items without a name
// are dropped. The featured item is the explicit one when it carries a name,
// otherwise the first imported item.
func (c *Catalog) Upsert(store string, items []MenuItem, featured *MenuItem) error {
	key := strings.TrimSpace(store)
	if key == "" {
		return ErrStoreRequired
	}

	kept := make([]MenuItem, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		kept = append(kept, item)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.menus[key] = kept
	switch {
	case featured != nil && strings.TrimSpace(featured.Name) != "":
		c.featured[key] = *featured
	case len(kept) > 0:
		c.featured[key] = kept[0]
	default:
		delete(c.featured, key)
	}
	return nil
}

// List returns the store's items in import order. Unknown stores yield an
// empty slice, never an error.
func (c *Catalog) List(store string) []MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]MenuItem(nil), c.menus[strings.TrimSpace(store)]...)
}

// Find resolves a menu name by normalized exact match: both sides are
// whitespace-stripped and case-folded before comparison. No substring scoring.
func (c *Catalog) Find(store, name string) (MenuItem, bool) {
	needle := Normalize(name)
	if needle == "" {
		return MenuItem{}, false
	}
	for _, item := range c.List(store) {
		if Normalize(item.Name) == needle {
			return item, true
		}
	}
	return MenuItem{}, false
}

// Featured returns the store's highlighted default item.
func (c *Catalog) Featured(store string) (MenuItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.featured[strings.TrimSpace(store)]
	return item, ok
}

// Stores lists known store keys in no particular order.
func (c *Catalog) Stores() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.menus))
	for key := range c.menus {
		out = append(out, key)
	}
	return out
}

// HasMenu reports whether the store has at least one item.
func (c *Catalog) HasMenu(store string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.menus[strings.TrimSpace(store)]) > 0
}

// Normalize strips all whitespace and case-folds, the canonical form for
// menu-name and mention matching.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
