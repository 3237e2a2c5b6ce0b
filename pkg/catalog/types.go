package catalog

import "strings"

// Collection describes one icon collection.
type Collection struct {
	Prefix   string   `json:"prefix"`
	Title    string   `json:"title"`
	Total    int      `json:"total"`
	Author   *Author  `json:"author,omitempty"`
	License  *License `json:"license,omitempty"`
	Samples  []string `json:"samples,omitempty"`
	Category string   `json:"category,omitempty"`
	Palette  bool     `json:"palette,omitempty"`
}

// Author credits a collection's creator.
type Author struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// License describes a collection's license.
type License struct {
	Title string `json:"title"`
	SPDX  string `json:"spdx,omitempty"`
	URL   string `json:"url,omitempty"`
}

// ListKind tells which shape a collection payload had.
type ListKind int

const (
	// KindFlat is an "uncategorized" list.
	KindFlat ListKind = iota
	// KindGrouped is a "categories" object of lists.
	KindGrouped
)

func (k ListKind) String() string {
	if k == KindGrouped {
		return "grouped"
	}
	return "flat"
}

// IconList is the parsed content of a collection. Icons is always the
// flattened list; for KindGrouped it is the concatenation of every
// category in document order.
type IconList struct {
	Kind  ListKind
	Icons []string
}

// Identifier is an icon reference split into prefix and name.
type Identifier struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

// String returns "prefix:name".
func (id Identifier) String() string {
	return id.Prefix + ":" + id.Name
}

// ParseIdentifier splits "prefix:name" on the first colon only, so
// "custom:a:b" yields the name "a:b". An input without a colon is all prefix.
func ParseIdentifier(s string) Identifier {
	prefix, name, _ := strings.Cut(s, ":")
	return Identifier{Prefix: prefix, Name: name}
}
