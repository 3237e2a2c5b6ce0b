package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/enowx/forger/pkg/catalog"
	ferrors "github.com/enowx/forger/pkg/errors"
	"github.com/enowx/forger/pkg/favorites"
)

func (c *CLI) favoritesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite icons and collections",
	}

	cmd.AddCommand(c.favoritesListCommand())
	cmd.AddCommand(c.favoritesAddCommand())
	cmd.AddCommand(c.favoritesRemoveCommand())

	return cmd
}

func (c *CLI) favoritesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			icons, cols := a.favorites.Icons(), a.favorites.Collections()
			if len(icons) == 0 && len(cols) == 0 {
				printInfo("No favorites yet")
				printNextStep("Add one", "forger favorites add mdi:home")
				return nil
			}
			if len(cols) > 0 {
				fmt.Println(StyleTitle.Render("Collections"))
				fmt.Println(favoriteCollectionTable(cols))
			}
			if len(icons) > 0 {
				fmt.Println(StyleTitle.Render("Icons"))
				fmt.Println(favoriteIconTable(icons))
			}
			return nil
		},
	}
}

func favoriteIconTable(icons []favorites.Icon) string {
	rows := make([][]string, len(icons))
	for i, ic := range icons {
		rows[i] = []string{ic.Prefix, ic.Name, formatAddedAt(ic.AddedAt)}
	}
	return renderTable([]string{"Prefix", "Name", "Added"}, rows)
}

func favoriteCollectionTable(cols []favorites.Collection) string {
	rows := make([][]string, len(cols))
	for i, col := range cols {
		rows[i] = []string{col.Prefix, col.Title, formatAddedAt(col.AddedAt)}
	}
	return renderTable([]string{"Prefix", "Title", "Added"}, rows)
}

func formatAddedAt(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

func (c *CLI) favoritesAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <prefix:name | prefix>",
		Short: "Favorite an icon, or a collection when no name is given",
		Example: `  forger favorites add mdi:home
  forger favorites add tabler`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			id := catalog.ParseIdentifier(args[0])
			if err := ferrors.ValidatePrefix(id.Prefix); err != nil {
				return err
			}
			if id.Name != "" {
				if err := ferrors.ValidateIconName(id.Name); err != nil {
					return err
				}
				a.favorites.AddIcon(ctx, id.Prefix, id.Name)
				printSuccess("Added %s to favorites", id)
				return nil
			}

			title := id.Prefix
			if out := a.discovery.FetchCollections(ctx); out.OK() {
				for _, col := range a.discovery.State().Collections {
					if col.Prefix == id.Prefix {
						title = col.Title
						break
					}
				}
			}
			a.favorites.AddCollection(ctx, id.Prefix, title)
			printSuccess("Added collection %s (%s) to favorites", id.Prefix, title)
			return nil
		},
	}
}

func (c *CLI) favoritesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <prefix:name | prefix>",
		Aliases: []string{"rm"},
		Short:   "Remove a favorite icon or collection",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			id := catalog.ParseIdentifier(args[0])
			if id.Name == "" {
				if !a.favorites.IsFavoriteCollection(id.Prefix) {
					printInfo("%s is not a favorite collection", id.Prefix)
					return nil
				}
				a.favorites.RemoveCollection(ctx, id.Prefix)
				printSuccess("Removed collection %s", id.Prefix)
				return nil
			}
			if !a.favorites.IsFavoriteIcon(id.Prefix, id.Name) {
				printInfo("%s is not a favorite", id)
				return nil
			}
			a.favorites.RemoveIcon(ctx, id.Prefix, id.Name)
			printSuccess("Removed %s", id)
			return nil
		},
	}
}
