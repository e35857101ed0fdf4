package nutri

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

var (
	reminderMessage  string
	reminderTomorrow bool
	reminderJSON     bool
)

var reminderCmd = &cobra.Command{
	Use:   "reminder [patient-id]",
	Short: "Build the WhatsApp appointment reminder for a patient, or for tomorrow's agenda",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			now := time.Now()
			out := cmd.OutOrStdout()
			if reminderTomorrow {
				items, err := service.TomorrowReminders(sqldb, now)
				if err != nil {
					return err
				}
				reminders := make([]service.Reminder, 0, len(items))
				for _, a := range items {
					r, err := service.PatientReminder(sqldb, a.PatientID, reminderMessage, now)
					if err != nil {
						return err
					}
					reminders = append(reminders, r)
				}
				if reminderJSON {
					return printJSON(out, reminders)
				}
				if len(reminders) == 0 {
					fmt.Fprintln(out, "No appointments tomorrow")
				}
				for _, r := range reminders {
					fmt.Fprintf(out, "%s\t%s\t%s\n", r.PatientName, r.Appointment, valueOr(r.Link, "(no phone)"))
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("patient id is required (or use --tomorrow)")
			}
			r, err := service.PatientReminder(sqldb, args[0], reminderMessage, now)
			if err != nil {
				return err
			}
			if reminderJSON {
				return printJSON(out, r)
			}
			fmt.Fprintf(out, "Message: %s\n", r.Message)
			if r.Link == "" {
				fmt.Fprintln(out, "Patient has no phone number")
				return nil
			}
			fmt.Fprintf(out, "Link: %s\n", r.Link)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(reminderCmd)
	reminderCmd.Flags().StringVar(&reminderMessage, "message", "", "Custom message (default built from the next appointment)")
	reminderCmd.Flags().BoolVar(&reminderTomorrow, "tomorrow", false, "Reminders for every appointment tomorrow")
	reminderCmd.Flags().BoolVar(&reminderJSON, "json", false, "Print JSON")
}
