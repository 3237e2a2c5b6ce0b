package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
)

// ErrMalformed is returned when a response body does not have the
// expected shape.
var ErrMalformed = errors.New("malformed catalog response")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// ParseCollections decodes a /collections body. The result is sorted by
// descending total; collections with equal totals keep document order.
func ParseCollections(body []byte) ([]Collection, error) {
	if !gjson.ValidBytes(body) {
		return nil, malformed("invalid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, malformed("collections: expected object")
	}

	var (
		out []Collection
		err error
	)
	root.ForEach(func(key, info gjson.Result) bool {
		if !info.IsObject() {
			err = malformed("collection %q: expected object", key.String())
			return false
		}
		out = append(out, parseCollection(key.String(), info))
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

func parseCollection(prefix string, info gjson.Result) Collection {
	c := Collection{
		Prefix:   prefix,
		Title:    firstString(info.Get("name"), info.Get("title")),
		Total:    int(info.Get("total").Int()),
		Category: info.Get("category").String(),
		Palette:  info.Get("palette").Bool(),
	}
	if c.Title == "" {
		c.Title = prefix
	}
	if a := info.Get("author"); a.IsObject() {
		c.Author = &Author{Name: a.Get("name").String(), URL: a.Get("url").String()}
	}
	if l := info.Get("license"); l.IsObject() {
		c.License = &License{
			Title: l.Get("title").String(),
			SPDX:  l.Get("spdx").String(),
			URL:   l.Get("url").String(),
		}
	}
	if s := info.Get("samples"); s.IsArray() {
		for _, v := range s.Array() {
			if v.Type == gjson.String {
				c.Samples = append(c.Samples, v.Str)
			}
		}
	}
	return c
}

func firstString(values ...gjson.Result) string {
	for _, v := range values {
		if v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// ParseIconList decodes a /collection body. "uncategorized" wins when both
// forms are present; a body with neither is malformed.
func ParseIconList(body []byte) (IconList, error) {
	if !gjson.ValidBytes(body) {
		return IconList{}, malformed("invalid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return IconList{}, malformed("collection: expected object")
	}

	if flat := root.Get("uncategorized"); flat.Exists() {
		icons, err := stringArray(flat, "uncategorized")
		if err != nil {
			return IconList{}, err
		}
		return IconList{Kind: KindFlat, Icons: icons}, nil
	}

	groups := root.Get("categories")
	if !groups.Exists() {
		return IconList{}, malformed("collection: neither uncategorized nor categories present")
	}
	if !groups.IsObject() {
		return IconList{}, malformed("categories: expected object")
	}

	icons := []string{}
	var err error
	groups.ForEach(func(name, list gjson.Result) bool {
		var part []string
		if part, err = stringArray(list, "categories."+name.String()); err != nil {
			return false
		}
		icons = append(icons, part...)
		return true
	})
	if err != nil {
		return IconList{}, err
	}
	return IconList{Kind: KindGrouped, Icons: icons}, nil
}

// ParseSearch decodes a /search body into identifiers. A body without
// "icons" is an empty result.
func ParseSearch(body []byte) ([]Identifier, error) {
	if !gjson.ValidBytes(body) {
		return nil, malformed("invalid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, malformed("search: expected object")
	}
	list := root.Get("icons")
	if !list.Exists() {
		return []Identifier{}, nil
	}
	names, err := stringArray(list, "icons")
	if err != nil {
		return nil, err
	}
	out := make([]Identifier, len(names))
	for i, n := range names {
		out[i] = ParseIdentifier(n)
	}
	return out, nil
}

func stringArray(v gjson.Result, field string) ([]string, error) {
	if !v.IsArray() {
		return nil, malformed("%s: expected array", field)
	}
	items := v.Array()
	out := make([]string, 0, len(items))
	for i, item := range items {
		if item.Type != gjson.String {
			return nil, malformed("%s[%d]: expected string", field, i)
		}
		out = append(out, item.Str)
	}
	return out, nil
}
