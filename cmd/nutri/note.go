package nutri

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage visit (evolution) notes",
}

var (
	noteDate          string
	noteObjective     string
	noteObservations  string
	noteImages        []string
	noteNext          string
	noteEvolutionFile string
	noteFilterDate    string
	noteLimit         int
	noteMonth         string
	noteJSON          bool
)

func noteEvolution() (*model.Evolution, error) {
	if noteEvolutionFile == "" {
		return nil, nil
	}
	e := &model.Evolution{}
	if err := readJSONFile(noteEvolutionFile, e); err != nil {
		return nil, err
	}
	return e, nil
}

var noteAddCmd = &cobra.Command{
	Use:   "add <patient-id>",
	Short: "Record a visit note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		images, err := service.ResolveAttachments(noteImages)
		if err != nil {
			return err
		}
		evolution, err := noteEvolution()
		if err != nil {
			return err
		}
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			id, err := service.AddNote(sqldb, args[0], service.NoteInput{
				Date:            noteDate,
				Objective:       noteObjective,
				Observations:    noteObservations,
				Images:          images,
				NextAppointment: noteNext,
				Evolution:       evolution,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added note %s\n", id)
			return nil
		})
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list [patient-id]",
	Short: "List notes, newest first (--date keeps visits or appointments on that day)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sqldb *sql.DB, u *model.User) error {
			id, err := patientArg(args, u)
			if err != nil {
				return err
			}
			if err := service.CanAccessPatient(u, id); err != nil {
				return err
			}
			notes, err := service.ListNotes(sqldb, id, service.NoteFilter{Date: noteFilterDate, Limit: noteLimit})
			if err != nil {
				return err
			}
			if noteJSON {
				return printJSON(cmd.OutOrStdout(), notes)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tDATE\tOBJECTIVE\tNEXT APPOINTMENT\tIMAGES")
			for _, n := range notes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%d\n",
					n.ID, n.Date, valueOr(n.Objective, "-"), valueOr(n.NextAppointment, "-"), len(n.Images))
			}
			return nil
		})
	},
}

var noteUpdateCmd = &cobra.Command{
	Use:   "update <note-id>",
	Short: "Update the given note fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			n, _, err := service.GetNote(sqldb, args[0])
			if err != nil {
				return err
			}
			in := service.NoteInput{
				Date:            n.Date,
				Objective:       n.Objective,
				Observations:    n.Observations,
				Images:          n.Images,
				NextAppointment: n.NextAppointment,
				Evolution:       n.Evolution,
			}
			flags := cmd.Flags()
			if flags.Changed("date") {
				in.Date = noteDate
			}
			if flags.Changed("objective") {
				in.Objective = noteObjective
			}
			if flags.Changed("observations") {
				in.Observations = noteObservations
			}
			if flags.Changed("next") {
				in.NextAppointment = noteNext
			}
			if flags.Changed("image") {
				if in.Images, err = service.ResolveAttachments(noteImages); err != nil {
					return err
				}
			}
			if flags.Changed("evolution") {
				if in.Evolution, err = noteEvolution(); err != nil {
					return err
				}
			}
			if err := service.UpdateNote(sqldb, args[0], in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated note %s\n", args[0])
			return nil
		})
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete <note-id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			if err := service.DeleteNote(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %s\n", args[0])
			return nil
		})
	},
}

var noteCalendarCmd = &cobra.Command{
	Use:   "calendar [patient-id]",
	Short: "Show the days of a month with visits (V) or appointments (A)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sqldb *sql.DB, u *model.User) error {
			id, err := patientArg(args, u)
			if err != nil {
				return err
			}
			if err := service.CanAccessPatient(u, id); err != nil {
				return err
			}
			month := noteMonth
			if month == "" {
				month = time.Now().Format("2006-01")
			}
			days, err := service.NoteCalendar(sqldb, id, month)
			if err != nil {
				return err
			}
			if noteJSON {
				return printJSON(cmd.OutOrStdout(), days)
			}
			for _, d := range days {
				if !d.Visit && !d.Appointment {
					continue
				}
				marks := ""
				if d.Visit {
					marks += "V"
				}
				if d.Appointment {
					marks += "A"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", d.Date, marks)
			}
			return nil
		})
	},
}

func addNoteFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&noteDate, "date", "", "Visit date and time (YYYY-MM-DD or YYYY-MM-DDTHH:MM, default now)")
	cmd.Flags().StringVar(&noteObjective, "objective", "", "Visit objective")
	cmd.Flags().StringVar(&noteObservations, "observations", "", "Observations")
	cmd.Flags().StringArrayVar(&noteImages, "image", nil, "Image file, URL or data URL (repeatable)")
	cmd.Flags().StringVar(&noteNext, "next", "", "Next appointment (YYYY-MM-DDTHH:MM)")
	cmd.Flags().StringVar(&noteEvolutionFile, "evolution", "", "Evolution questionnaire JSON file")
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteListCmd, noteUpdateCmd, noteDeleteCmd, noteCalendarCmd)

	addNoteFieldFlags(noteAddCmd)
	addNoteFieldFlags(noteUpdateCmd)
	noteListCmd.Flags().StringVar(&noteFilterDate, "date", "", "Only notes with a visit or appointment on this day")
	noteListCmd.Flags().IntVar(&noteLimit, "limit", 0, "Maximum rows")
	noteListCmd.Flags().BoolVar(&noteJSON, "json", false, "Print JSON")
	noteCalendarCmd.Flags().StringVar(&noteMonth, "month", "", "Month (YYYY-MM, default current)")
	noteCalendarCmd.Flags().BoolVar(&noteJSON, "json", false, "Print JSON")
}
