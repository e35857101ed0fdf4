package nutri

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

var (
	dashboardDate string
	dashboardJSON bool
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the practice overview: weekly visits, agenda, upcoming appointments",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			d, err := service.BuildDashboard(sqldb, time.Now(), dashboardDate)
			if err != nil {
				return err
			}
			if dashboardJSON {
				return printJSON(cmd.OutOrStdout(), d)
			}
			theme, err := service.GetTheme(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDashboard(newStyles(theme), d))
			return nil
		})
	},
}

func renderDashboard(st styles, d *service.Dashboard) string {
	var week strings.Builder
	fmt.Fprintf(&week, "%s\n", st.Heading.Render("Consultas de la semana"))
	for _, day := range d.Week {
		fmt.Fprintf(&week, "%-10s %s %d\n", day.Label, st.Accent.Render(strings.Repeat("■", day.Count)), day.Count)
	}
	fmt.Fprintf(&week, "Total: %d", d.WeeklyTotal)

	var agenda strings.Builder
	fmt.Fprintf(&agenda, "%s\n", st.Heading.Render("Agenda "+d.AgendaDate))
	if len(d.Agenda) == 0 {
		agenda.WriteString(st.Muted.Render("Sin citas"))
	}
	for i, a := range d.Agenda {
		if i > 0 {
			agenda.WriteString("\n")
		}
		fmt.Fprintf(&agenda, "%s %s %s", timeOf(a.Date), a.PatientName, st.Muted.Render(a.Objective))
	}

	var upcoming strings.Builder
	fmt.Fprintf(&upcoming, "%s\n", st.Heading.Render("Próximas citas"))
	if len(d.Upcoming) == 0 {
		upcoming.WriteString(st.Muted.Render("Sin citas"))
	}
	for i, a := range d.Upcoming {
		if i > 0 {
			upcoming.WriteString("\n")
		}
		fmt.Fprintf(&upcoming, "%s %s", a.Date, a.PatientName)
	}

	header := st.Title.Render(fmt.Sprintf("Pacientes: %d", d.TotalPatients))
	if n := len(d.Tomorrow); n > 0 {
		header += "  " + st.Warn.Render(fmt.Sprintf("%d cita(s) mañana, envía recordatorios con `nutri reminder --tomorrow`", n))
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		st.Card.Render(week.String()),
		st.Card.Render(agenda.String()),
		st.Card.Render(upcoming.String()),
	)

	var recent strings.Builder
	fmt.Fprintf(&recent, "%s\n", st.Heading.Render("Pacientes recientes"))
	for _, p := range d.Recent {
		fmt.Fprintf(&recent, "%s %s\n", p.Name, st.Muted.Render(p.ID))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, cards, strings.TrimRight(recent.String(), "\n"))
}

func timeOf(ts string) string {
	if i := strings.Index(ts, "T"); i >= 0 {
		return ts[i+1:]
	}
	return ts
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().StringVar(&dashboardDate, "date", "", "Agenda day (YYYY-MM-DD, default today)")
	dashboardCmd.Flags().BoolVar(&dashboardJSON, "json", false, "Print JSON")
}
