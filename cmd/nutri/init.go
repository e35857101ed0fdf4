package nutri

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saadjs/nutri-cli/internal/service"
)

var (
	initEmpty         bool
	initAdminEmail    string
	initAdminPassword string
	initAdminName     string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the local database with demo data or a first clinician",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			out := cmd.OutOrStdout()
			if initEmpty {
				created, err := service.SeedAdmin(sqldb, initAdminEmail, initAdminPassword, initAdminName)
				if err != nil {
					return err
				}
				if created {
					logger.Info("admin seeded", zap.String("email", initAdminEmail))
					fmt.Fprintf(out, "Created clinician %s\n", initAdminEmail)
				}
			} else {
				seeded, err := service.SeedDemo(sqldb)
				if err != nil {
					return err
				}
				if seeded {
					logger.Info("demo data seeded")
					fmt.Fprintf(out, "Loaded demo practice (login: %s / %s)\n", service.DemoAdminEmail, service.DemoAdminPassword)
				}
			}
			fmt.Fprintf(out, "Initialized nutri database at %s\n", path)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initEmpty, "empty", false, "Skip demo data and create only a clinician login")
	initCmd.Flags().StringVar(&initAdminEmail, "email", service.DemoAdminEmail, "Clinician email (with --empty)")
	initCmd.Flags().StringVar(&initAdminPassword, "password", service.DemoAdminPassword, "Clinician password (with --empty)")
	initCmd.Flags().StringVar(&initAdminName, "name", "Nutriólogo", "Clinician name (with --empty)")
}
