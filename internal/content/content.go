// Package content defines the synced content model: named items grouped
// into classes, with millisecond timestamps driving conflict resolution.
package content

import (
	"fmt"
	"sort"
	"strings"
)

// Class partitions content items by type. Classes share the sync
// algorithm but have independent namespaces.
type Class string

const (
	ClassRecipes Class = "recipes"
	ClassImages  Class = "images"
)

// Classes lists all content classes in the order they are synced.
var Classes = []Class{ClassRecipes, ClassImages}

// ParseClass converts a string to a known Class.
func ParseClass(s string) (Class, error) {
	switch Class(strings.ToLower(s)) {
	case ClassRecipes:
		return ClassRecipes, nil
	case ClassImages:
		return ClassImages, nil
	default:
		return "", fmt.Errorf("unknown content class %q", s)
	}
}

func (c Class) String() string {
	return string(c)
}

// Item is one named piece of user content plus its sync metadata.
// Name is the join key between local and remote stores. Two items with
// the same name are the same logical entity regardless of RemoteID.
type Item struct {
	Name         string `json:"name"`
	Content      []byte `json:"content,omitempty"`
	LastModified int64  `json:"lastModified"` // ms since epoch
	RemoteID     string `json:"remoteId,omitempty"`
}

// ValidName reports whether name can identify an item. Names are single
// path segments, compared case-sensitively.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}

// Collection is a set of items unique by name.
type Collection []Item

// Get returns the item with the given name.
func (c Collection) Get(name string) (Item, bool) {
	for _, it := range c {
		if it.Name == name {
			return it, true
		}
	}
	return Item{}, false
}

// ByName returns a name-keyed view of the collection.
func (c Collection) ByName() map[string]Item {
	m := make(map[string]Item, len(c))
	for _, it := range c {
		m[it.Name] = it
	}
	return m
}

// Names returns all item names in collection order.
func (c Collection) Names() []string {
	names := make([]string, len(c))
	for i, it := range c {
		names[i] = it.Name
	}
	return names
}

// Upsert replaces the item with the same name, or appends it.
// Returns true if an existing item was replaced.
func (c *Collection) Upsert(it Item) bool {
	for i := range *c {
		if (*c)[i].Name == it.Name {
			(*c)[i] = it
			return true
		}
	}
	*c = append(*c, it)
	return false
}

// Remove deletes the item with the given name. Returns true if found.
func (c *Collection) Remove(name string) bool {
	for i := range *c {
		if (*c)[i].Name == name {
			*c = append((*c)[:i], (*c)[i+1:]...)
			return true
		}
	}
	return false
}

// Sorted returns a copy ordered by name for stable listings.
func (c Collection) Sorted() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
