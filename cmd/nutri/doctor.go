package nutri

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run data integrity checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			report, err := service.RunDoctor(sqldb, doctorFix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Patients with several active plans: %d\n", report.MultipleActivePlans)
			fmt.Fprintf(out, "Users linked to missing patients: %d\n", report.DanglingUserLinks)
			fmt.Fprintf(out, "Unreadable patient documents: %d\n", report.InvalidDocuments)
			fmt.Fprintf(out, "Empty adherence rows: %d\n", report.EmptyAdherenceRows)
			if doctorFix {
				fmt.Fprintf(out, "Fixed rows: %d\n", report.FixedRows)
				report, err = service.RunDoctor(sqldb, false)
				if err != nil {
					return err
				}
			}
			if !report.Healthy() {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Attempt safe auto-fixes")
}
