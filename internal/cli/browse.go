package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/enowx/forger/pkg/catalog"
	"github.com/enowx/forger/pkg/discovery"
	"github.com/enowx/forger/pkg/favorites"
)

// collectionsOpts holds the flags of the collections command.
type collectionsOpts struct {
	filter    string
	category  string
	limit     int
	favorites bool
}

func (c *CLI) collectionsCommand() *cobra.Command {
	opts := collectionsOpts{limit: 30}

	cmd := &cobra.Command{
		Use:   "collections",
		Short: "List icon collections, largest first",
		Example: `  forger collections
  forger collections --filter logos
  forger collections --category "Brands / Social" --limit 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			spinner := newSpinnerWithContext(ctx, "Fetching collections...")
			spinner.Start()
			out := a.discovery.FetchCollections(ctx)
			spinner.Stop()
			if err := outcomeError(out); err != nil {
				return err
			}

			list := filterCollections(a.discovery.State().Collections, a.favorites, opts)
			if len(list) == 0 {
				printInfo("No collections match")
				return nil
			}
			fmt.Println(collectionTable(list, a.favorites))
			printDetail("%d collections%s", len(list), cachedSuffix(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.filter, "filter", "f", "", "match prefix or title")
	cmd.Flags().StringVar(&opts.category, "category", "", "only collections of this category")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", opts.limit, "maximum rows (0 for all)")
	cmd.Flags().BoolVar(&opts.favorites, "favorites", false, "only favorite collections")

	return cmd
}

func filterCollections(list []catalog.Collection, fav *favorites.Store, opts collectionsOpts) []catalog.Collection {
	filter := strings.ToLower(opts.filter)
	var out []catalog.Collection
	for _, col := range list {
		if filter != "" && !strings.Contains(strings.ToLower(col.Prefix), filter) &&
			!strings.Contains(strings.ToLower(col.Title), filter) {
			continue
		}
		if opts.category != "" && !strings.EqualFold(col.Category, opts.category) {
			continue
		}
		if opts.favorites && !fav.IsFavoriteCollection(col.Prefix) {
			continue
		}
		out = append(out, col)
		if opts.limit > 0 && len(out) == opts.limit {
			break
		}
	}
	return out
}

func collectionTable(list []catalog.Collection, fav *favorites.Store) string {
	rows := make([][]string, len(list))
	for i, col := range list {
		author, license := "", ""
		if col.Author != nil {
			author = col.Author.Name
		}
		if col.License != nil {
			license = col.License.Title
			if col.License.SPDX != "" {
				license = col.License.SPDX
			}
		}
		rows[i] = []string{
			favoriteMark(fav.IsFavoriteCollection(col.Prefix)),
			col.Prefix,
			col.Title,
			strconv.Itoa(col.Total),
			col.Category,
			author,
			license,
		}
	}
	return renderTable([]string{"", "Prefix", "Title", "Icons", "Category", "Author", "License"}, rows)
}

// =============================================================================
// icons
// =============================================================================

func (c *CLI) iconsCommand() *cobra.Command {
	var perRow int

	cmd := &cobra.Command{
		Use:     "icons <prefix>",
		Short:   "List the icons of a collection",
		Example: "  forger icons mdi\n  forger icons simple-icons --columns 1",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			prefix := args[0]
			spinner := newSpinnerWithContext(ctx, "Fetching "+prefix+"...")
			spinner.Start()
			out := a.discovery.FetchCollectionIcons(ctx, prefix)
			spinner.Stop()
			if err := outcomeError(out); err != nil {
				return err
			}

			st := a.discovery.State()
			if len(st.CollectionIcons) == 0 {
				printInfo("Collection %s has no icons", prefix)
				return nil
			}
			fmt.Print(columns(markFavorites(st.SelectedCollection, st.CollectionIcons, a.favorites), perRow))
			printDetail("%d icons in %s%s", len(st.CollectionIcons), st.SelectedCollection, cachedSuffix(out))
			return nil
		},
	}

	cmd.Flags().IntVar(&perRow, "columns", 4, "icons per row")
	return cmd
}

func markFavorites(prefix string, names []string, fav *favorites.Store) []string {
	out := make([]string, len(names))
	for i, name := range names {
		if fav.IsFavoriteIcon(prefix, name) {
			out[i] = name + " " + iconFavorite
		} else {
			out[i] = name
		}
	}
	return out
}

// =============================================================================
// search
// =============================================================================

func (c *CLI) searchCommand() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:     "search <query>",
		Short:   "Search icons across collections",
		Example: "  forger search home\n  forger search arrow --prefix mdi",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			query := strings.Join(args, " ")
			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Searching %q...", query))
			spinner.Start()
			out := a.discovery.SearchIcons(ctx, query, prefix)
			spinner.Stop()
			if err := outcomeError(out); err != nil {
				return err
			}

			results := a.discovery.State().SearchResults
			if len(results) == 0 {
				printInfo("No icons found for %q", query)
				return nil
			}
			rows := make([][]string, len(results))
			for i, r := range results {
				rows[i] = []string{favoriteMark(a.favorites.IsFavoriteIcon(r.Prefix, r.Name)), r.Prefix, r.Name}
			}
			fmt.Println(renderTable([]string{"", "Prefix", "Name"}, rows))
			printDetail("%d results%s", len(results), cachedSuffix(out))
			printNextStep("Download one", fmt.Sprintf("forger download %s", results[0]))
			return nil
		},
	}

	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "only search this collection")
	return cmd
}

// outcomeError turns failed and canceled outcomes into command errors.
// Empty results are not errors.
func outcomeError(out discovery.Outcome) error {
	switch out.Status {
	case discovery.StatusFailed:
		return fmt.Errorf("catalog unavailable: %w", out.Err)
	case discovery.StatusCanceled:
		return out.Err
	}
	return nil
}

func cachedSuffix(out discovery.Outcome) string {
	if out.Cached {
		return " (cached)"
	}
	return ""
}
