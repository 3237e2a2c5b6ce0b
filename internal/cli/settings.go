package cli

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cobra"

	"github.com/enowx/forger/pkg/settings"
)

func (c *CLI) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change persisted settings",
	}

	cmd.AddCommand(c.settingsShowCommand())
	cmd.AddCommand(c.settingsSetCommand())
	cmd.AddCommand(c.settingsResetCommand())

	return cmd
}

func (c *CLI) settingsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			for _, kv := range settingValues(a.settings.Get()) {
				printKeyValue(kv[0], kv[1])
			}
			printDetail("Store: %s", a.cfg.Store)
			return nil
		},
	}
}

// settingValues returns (name, value) pairs in the order of settings.Fields.
func settingValues(s settings.Settings) [][2]string {
	byTag := make(map[string]string)
	v := reflect.ValueOf(s)
	for i := 0; i < v.NumField(); i++ {
		tag, _, _ := strings.Cut(v.Type().Field(i).Tag.Get("json"), ",")
		byTag[tag] = fmt.Sprint(v.Field(i).Interface())
	}
	out := make([][2]string, 0, len(settings.Fields))
	for _, name := range settings.Fields {
		value := byTag[name]
		if value == "" {
			value = StyleDim.Render("(unset)")
		}
		out = append(out, [2]string{name, value})
	}
	return out
}

func (c *CLI) settingsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "set <name> <value>",
		Short:     "Change one setting",
		Example:   "  forger settings set defaultIconFormat png\n  forger settings set downloadPath ~/icons",
		Args:      cobra.ExactArgs(2),
		ValidArgs: settings.Fields,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var setErr error
			a.settings.Update(ctx, func(s settings.Settings) settings.Settings {
				setErr = s.SetField(args[0], args[1])
				return s
			})
			if setErr != nil {
				return setErr
			}
			printSuccess("%s = %s", args[0], args[1])
			return nil
		},
	}
}

func (c *CLI) settingsResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			a.settings.Reset(ctx)
			printSuccess("Settings reset to defaults")
			return nil
		},
	}
}
