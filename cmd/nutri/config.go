package nutri

import (
	"database/sql"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutri-cli/internal/config"
	"github.com/saadjs/nutri-cli/internal/service"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage nutri local configuration",
}

var (
	configForce  bool
	configStored bool
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}
		if !configStored {
			return nil
		}
		return withDB(func(sqldb *sql.DB) error {
			stored, err := service.ListConfig(sqldb)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(stored))
			for k := range stored {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(cmd.OutOrStdout(), "# stored")
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, stored[k])
			}
			return nil
		})
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("config already exists at %s; use --force to overwrite", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote config: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)
	configShowCmd.Flags().BoolVar(&configStored, "stored", false, "Also list values stored in the database")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
}
