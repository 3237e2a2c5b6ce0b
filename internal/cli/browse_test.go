package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/enowx/forger/pkg/catalog"
	"github.com/enowx/forger/pkg/discovery"
	"github.com/enowx/forger/pkg/favorites"
	"github.com/enowx/forger/pkg/kv"
)

func testCollections() []catalog.Collection {
	return []catalog.Collection{
		{Prefix: "mdi", Title: "Material Design Icons", Total: 7000, Category: "General",
			License: &catalog.License{Title: "Apache License 2.0", SPDX: "Apache-2.0"}},
		{Prefix: "logos", Title: "SVG Logos", Total: 1800, Category: "Logos",
			Author: &catalog.Author{Name: "Gil Barbara"}},
		{Prefix: "tabler", Title: "Tabler Icons", Total: 5000, Category: "General"},
	}
}

func TestFilterCollections(t *testing.T) {
	fav := favorites.New(kv.NewMemoryStore())
	fav.AddCollection(context.Background(), "tabler", "Tabler Icons")

	tests := []struct {
		name string
		opts collectionsOpts
		want []string
	}{
		{"all", collectionsOpts{}, []string{"mdi", "logos", "tabler"}},
		{"filter title", collectionsOpts{filter: "svg"}, []string{"logos"}},
		{"filter prefix case", collectionsOpts{filter: "MD"}, []string{"mdi"}},
		{"category", collectionsOpts{category: "general"}, []string{"mdi", "tabler"}},
		{"limit", collectionsOpts{limit: 2}, []string{"mdi", "logos"}},
		{"favorites", collectionsOpts{favorites: true}, []string{"tabler"}},
		{"no match", collectionsOpts{filter: "zzz"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, col := range filterCollections(testCollections(), fav, tt.opts) {
				got = append(got, col.Prefix)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("filterCollections() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollectionTable(t *testing.T) {
	fav := favorites.New(kv.NewMemoryStore())
	out := collectionTable(testCollections(), fav)
	for _, want := range []string{"Prefix", "mdi", "Apache-2.0", "Gil Barbara", "7000"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Apache License 2.0") {
		t.Error("SPDX identifier should replace the license title")
	}
}

func TestMarkFavorites(t *testing.T) {
	fav := favorites.New(kv.NewMemoryStore())
	fav.AddIcon(context.Background(), "mdi", "home")

	got := markFavorites("mdi", []string{"account", "home"}, fav)
	if got[0] != "account" || got[1] != "home "+iconFavorite {
		t.Errorf("markFavorites() = %v", got)
	}
}

func TestOutcomeError(t *testing.T) {
	if err := outcomeError(discovery.Outcome{Status: discovery.StatusOK}); err != nil {
		t.Errorf("ok outcome: %v", err)
	}
	if err := outcomeError(discovery.Outcome{Status: discovery.StatusEmpty}); err != nil {
		t.Errorf("empty outcome: %v", err)
	}
	err := outcomeError(discovery.Outcome{Status: discovery.StatusFailed, Err: catalog.ErrNetwork})
	if !errors.Is(err, catalog.ErrNetwork) {
		t.Errorf("failed outcome = %v, want wrapped ErrNetwork", err)
	}
}

func TestColumns(t *testing.T) {
	out := columns([]string{"a", "bbb", "c", "d", "e"}, 2)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "a") || !strings.Contains(lines[0], "bbb") {
		t.Errorf("first row = %q", lines[0])
	}
	if strings.TrimSpace(lines[2]) != "e" {
		t.Errorf("last row = %q", lines[2])
	}
}

func TestFormatCounts(t *testing.T) {
	if got := formatCounts(countPart{3, "delivered"}, countPart{0, "failed"}); got != "3 delivered" {
		t.Errorf("formatCounts() = %q", got)
	}
	if got := formatCounts(countPart{2, "a"}, countPart{1, "b"}); got != "2 a · 1 b" {
		t.Errorf("formatCounts() = %q", got)
	}
	if got := formatCounts(countPart{0, "a"}); got != "nothing to do" {
		t.Errorf("formatCounts() = %q", got)
	}
}
