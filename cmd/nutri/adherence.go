package nutri

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

var adherenceCmd = &cobra.Command{
	Use:   "adherence",
	Short: "Track daily plan adherence",
}

var (
	adhDate        string
	adhChecks      model.AdherenceChecks
	adhFrom        string
	adhTo          string
	adhMonth       string
	adhDays        int
	adhJSON        bool
	adhTrendEndStr string
)

func adherenceDay() string {
	if strings.TrimSpace(adhDate) == "" {
		return time.Now().Format("2006-01-02")
	}
	return adhDate
}

func printAdherence(cmd *cobra.Command, a model.Adherence) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", a.Date, service.FormatScore(a.Completed), service.LevelForScore(a.Completed))
}

var adherenceSetCmd = &cobra.Command{
	Use:   "set [patient-id]",
	Short: "Record the day's checklist",
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
			a, err := service.SetAdherence(sqldb, id, adherenceDay(), adhChecks)
			if err != nil {
				return err
			}
			printAdherence(cmd, a)
			return nil
		})
	},
}

var adherenceToggleCmd = &cobra.Command{
	Use:   "toggle <breakfast|lunch|dinner|supplements> [patient-id]",
	Short: "Flip one checklist item for the day",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sqldb *sql.DB, u *model.User) error {
			id, err := patientArg(args[1:], u)
			if err != nil {
				return err
			}
			if err := service.CanAccessPatient(u, id); err != nil {
				return err
			}
			a, err := service.ToggleAdherence(sqldb, id, adherenceDay(), args[0])
			if err != nil {
				return err
			}
			printAdherence(cmd, a)
			return nil
		})
	},
}

var adherenceListCmd = &cobra.Command{
	Use:   "list [patient-id]",
	Short: "List recorded days",
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
			items, err := service.ListAdherence(sqldb, id, adhFrom, adhTo)
			if err != nil {
				return err
			}
			if adhJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DATE\tSCORE\tBREAKFAST\tLUNCH\tDINNER\tSUPPLEMENTS")
			for _, a := range items {
				c := a.Checks
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%t\t%t\t%t\t%t\n", a.Date, service.FormatScore(a.Completed), c.Breakfast, c.Lunch, c.Dinner, c.Supplements)
			}
			return nil
		})
	},
}

var adherenceCalendarCmd = &cobra.Command{
	Use:   "calendar [patient-id]",
	Short: "Show a month colored by daily adherence",
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
			month := adhMonth
			if month == "" {
				month = time.Now().Format("2006-01")
			}
			days, err := service.AdherenceCalendar(sqldb, id, month)
			if err != nil {
				return err
			}
			if adhJSON {
				return printJSON(cmd.OutOrStdout(), days)
			}
			theme, err := service.GetTheme(sqldb)
			if err != nil {
				return err
			}
			renderAdherenceCalendar(cmd, newStyles(theme), days)
			return nil
		})
	},
}

func renderAdherenceCalendar(cmd *cobra.Command, st styles, days []service.AdherenceDay) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Lu Ma Mi Ju Vi Sa Do")
	if len(days) == 0 {
		return
	}
	first, err := time.Parse("2006-01-02", days[0].Date)
	if err != nil {
		return
	}
	offset := (int(first.Weekday()) + 6) % 7
	fmt.Fprint(out, strings.Repeat("   ", offset))
	for i, d := range days {
		cell := fmt.Sprintf("%2d", i+1)
		switch d.Level {
		case service.AdherenceComplete:
			cell = st.Good.Render(cell)
		case service.AdherencePartial:
			cell = st.Warn.Render(cell)
		case service.AdherenceLow:
			cell = st.Bad.Render(cell)
		default:
			cell = st.Muted.Render(cell)
		}
		fmt.Fprint(out, cell)
		if (offset+i+1)%7 == 0 {
			fmt.Fprintln(out)
		} else {
			fmt.Fprint(out, " ")
		}
	}
	fmt.Fprintln(out)
}

var adherenceTrendCmd = &cobra.Command{
	Use:   "trend [patient-id]",
	Short: "Show the daily completion percentage for the last days",
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
			end := time.Now()
			if adhTrendEndStr != "" {
				if end, err = time.ParseInLocation("2006-01-02", adhTrendEndStr, time.Local); err != nil {
					return fmt.Errorf("invalid --end %q (expected YYYY-MM-DD)", adhTrendEndStr)
				}
			}
			points, err := service.AdherenceTrend(sqldb, id, end, adhDays)
			if err != nil {
				return err
			}
			if adhJSON {
				return printJSON(cmd.OutOrStdout(), points)
			}
			theme, err := service.GetTheme(sqldb)
			if err != nil {
				return err
			}
			st := newStyles(theme)
			for _, p := range points {
				bar := st.Accent.Render(strings.Repeat("█", p.Completed*5))
				fmt.Fprintf(cmd.OutOrStdout(), "%s %3.0f%% %s\n", p.Date, p.Percent, bar)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(adherenceCmd)
	adherenceCmd.AddCommand(adherenceSetCmd, adherenceToggleCmd, adherenceListCmd, adherenceCalendarCmd, adherenceTrendCmd)

	adherenceSetCmd.Flags().StringVar(&adhDate, "date", "", "Day (YYYY-MM-DD, default today)")
	adherenceSetCmd.Flags().BoolVar(&adhChecks.Breakfast, "breakfast", false, "Breakfast followed")
	adherenceSetCmd.Flags().BoolVar(&adhChecks.Lunch, "lunch", false, "Lunch followed")
	adherenceSetCmd.Flags().BoolVar(&adhChecks.Dinner, "dinner", false, "Dinner followed")
	adherenceSetCmd.Flags().BoolVar(&adhChecks.Supplements, "supplements", false, "Supplements taken")
	adherenceToggleCmd.Flags().StringVar(&adhDate, "date", "", "Day (YYYY-MM-DD, default today)")
	adherenceListCmd.Flags().StringVar(&adhFrom, "from", "", "First day (YYYY-MM-DD)")
	adherenceListCmd.Flags().StringVar(&adhTo, "to", "", "Last day (YYYY-MM-DD)")
	adherenceListCmd.Flags().BoolVar(&adhJSON, "json", false, "Print JSON")
	adherenceCalendarCmd.Flags().StringVar(&adhMonth, "month", "", "Month (YYYY-MM, default current)")
	adherenceCalendarCmd.Flags().BoolVar(&adhJSON, "json", false, "Print JSON")
	adherenceTrendCmd.Flags().IntVar(&adhDays, "days", service.DefaultTrendDays, "Number of days")
	adherenceTrendCmd.Flags().StringVar(&adhTrendEndStr, "end", "", "Last day (YYYY-MM-DD, default today)")
	adherenceTrendCmd.Flags().BoolVar(&adhJSON, "json", false, "Print JSON")
}
