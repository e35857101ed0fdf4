package nutri

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show or change the practice color theme",
}

var (
	themeAppBg   string
	themeCardBg  string
	themeText    string
	themePrimary string
	themeFont    string
)

func printTheme(cmd *cobra.Command, t model.ThemeConfig) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "appBg        %s\n", swatch(t.AppBg))
	fmt.Fprintf(out, "cardBg       %s\n", swatch(t.CardBg))
	fmt.Fprintf(out, "textColor    %s\n", swatch(t.TextColor))
	fmt.Fprintf(out, "primaryColor %s\n", swatch(t.PrimaryColor))
	fmt.Fprintf(out, "fontFamily   %s\n", t.FontFamily)
}

var themeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current theme",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			t, err := service.GetTheme(sqldb)
			if err != nil {
				return err
			}
			printTheme(cmd, t)
			return nil
		})
	},
}

var themeSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change individual theme colors",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			t, err := service.GetTheme(sqldb)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("app-bg") {
				t.AppBg = themeAppBg
			}
			if flags.Changed("card-bg") {
				t.CardBg = themeCardBg
			}
			if flags.Changed("text") {
				t.TextColor = themeText
			}
			if flags.Changed("primary") {
				t.PrimaryColor = themePrimary
			}
			if flags.Changed("font") {
				t.FontFamily = themeFont
			}
			if err := service.SetTheme(sqldb, t); err != nil {
				return err
			}
			printTheme(cmd, t)
			return nil
		})
	},
}

var themePresetCmd = &cobra.Command{
	Use:   "preset [name]",
	Short: "List presets, or apply one by name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			for _, p := range service.ThemePresets {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Name, swatch(p.Config.PrimaryColor))
			}
			return nil
		}
		p, err := service.FindThemePreset(strings.Join(args, " "))
		if err != nil {
			return err
		}
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			if err := service.SetTheme(sqldb, p.Config); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied preset %s\n", p.Name)
			return nil
		})
	},
}

var themeResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default theme",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			if err := service.ResetTheme(sqldb); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Theme reset to default")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeShowCmd, themeSetCmd, themePresetCmd, themeResetCmd)
	themeSetCmd.Flags().StringVar(&themeAppBg, "app-bg", "", "App background (#rrggbb)")
	themeSetCmd.Flags().StringVar(&themeCardBg, "card-bg", "", "Card background (#rrggbb)")
	themeSetCmd.Flags().StringVar(&themeText, "text", "", "Text color (#rrggbb)")
	themeSetCmd.Flags().StringVar(&themePrimary, "primary", "", "Primary color (#rrggbb)")
	themeSetCmd.Flags().StringVar(&themeFont, "font", "", "Font family")
}
