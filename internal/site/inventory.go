package site

import "fmt"

// Inventory is the complete, ordered set of known pages. It is assembled
// before a run starts (by the scanner or by the host) and never mutated by
// the pipeline.
type Inventory struct {
	pages       []*Page
	byID        map[string]*Page
	errorPage   *Page
	fingerprint string
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{byID: make(map[string]*Page)}
}

// Add appends a page. Duplicate ids and second error pages are rejected.
func (inv *Inventory) Add(p *Page) error {
	if _, exists := inv.byID[p.ID()]; exists {
		return fmt.Errorf("duplicate page id %s", p.ID())
	}
	if p.Kind() == KindError {
		if inv.errorPage != nil {
			return fmt.Errorf("page %s: inventory already has error page %s", p.ID(), inv.errorPage.ID())
		}
		inv.errorPage = p
	}
	inv.pages = append(inv.pages, p)
	inv.byID[p.ID()] = p
	return nil
}

// AddSpec validates and appends a registered page.
func (inv *Inventory) AddSpec(spec PageSpec) error {
	p, err := NewPage(spec)
	if err != nil {
		return err
	}
	return inv.Add(p)
}

// Pages returns the pages in registration order.
func (inv *Inventory) Pages() []*Page { return inv.pages }

// Get looks a page up by id.
func (inv *Inventory) Get(id string) (*Page, bool) {
	p, ok := inv.byID[id]
	return p, ok
}

// ErrorPage returns the error page, or nil when the inventory has none.
func (inv *Inventory) ErrorPage() *Page { return inv.errorPage }

// Len returns the number of pages.
func (inv *Inventory) Len() int { return len(inv.pages) }

// Fingerprint is an aggregate content fingerprint over all scanned page
// sources; empty for purely programmatic inventories.
func (inv *Inventory) Fingerprint() string { return inv.fingerprint }
