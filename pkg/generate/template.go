package generate

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	ferrors "github.com/enowx/forger/pkg/errors"
)

// Template is a target platform with its required icon files.
type Template struct {
	ID          string     `toml:"id"`
	Name        string     `toml:"name"`
	Description string     `toml:"description"`
	Category    string     `toml:"category"`
	Icons       []IconSize `toml:"icons"`
}

type templateFile struct {
	Templates []Template `toml:"template"`
}

// LoadTemplates reads a template catalog file:
//
//	[[template]]
//	id = "electron"
//	name = "Electron"
//	category = "desktop"
//
//	  [[template.icons]]
//	  name = "icon.png"
//	  width = 512
//	  height = 512
//	  format = "png"
func LoadTemplates(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTemplates(data)
}

// ParseTemplates decodes and validates a template catalog.
func ParseTemplates(data []byte) ([]Template, error) {
	var f templateFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidTemplate, err, "parse templates")
	}

	seen := make(map[string]bool, len(f.Templates))
	for i, t := range f.Templates {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if seen[t.ID] {
			return nil, ferrors.New(ferrors.ErrCodeInvalidTemplate, "duplicate template id %q", t.ID)
		}
		seen[t.ID] = true
		if t.Name == "" {
			f.Templates[i].Name = t.ID
		}
	}
	return f.Templates, nil
}

func (t Template) validate() error {
	if t.ID == "" {
		return ferrors.New(ferrors.ErrCodeInvalidTemplate, "template without id")
	}
	if err := ferrors.ValidateRelativePath(t.ID); err != nil || strings.Contains(t.ID, "/") {
		return ferrors.New(ferrors.ErrCodeInvalidTemplate, "invalid template id %q", t.ID)
	}
	if len(t.Icons) == 0 {
		return ferrors.New(ferrors.ErrCodeInvalidTemplate, "template %q has no icons", t.ID)
	}
	for _, icon := range t.Icons {
		if err := ferrors.ValidateRelativePath(icon.Name); err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidTemplate, err, "template %q", t.ID)
		}
		if icon.Width <= 0 || icon.Height <= 0 {
			return ferrors.New(ferrors.ErrCodeInvalidTemplate, "template %q: icon %s has invalid size %dx%d",
				t.ID, icon.Name, icon.Width, icon.Height)
		}
		if icon.Format == "" {
			return ferrors.New(ferrors.ErrCodeInvalidTemplate, "template %q: icon %s has no format", t.ID, icon.Name)
		}
	}
	return nil
}

// Select returns the templates with the given ids, in the order of ids.
// No ids selects everything.
func Select(templates []Template, ids []string) ([]Template, error) {
	if len(ids) == 0 {
		return templates, nil
	}
	byID := make(map[string]Template, len(templates))
	for _, t := range templates {
		byID[t.ID] = t
	}
	out := make([]Template, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[strings.TrimSpace(id)]
		if !ok {
			return nil, ferrors.New(ferrors.ErrCodeInvalidTemplate, "unknown template %q", id)
		}
		out = append(out, t)
	}
	return out, nil
}
