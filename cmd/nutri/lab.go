package nutri

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

var labCmd = &cobra.Command{
	Use:   "lab",
	Short: "Manage lab results",
}

var (
	labName        string
	labDate        string
	labMarkers     []string
	labMarkersFile string
	labAttachments []string
	labJSON        bool
)

// parseMarker reads "name|value|unit|flag"; unit and flag are optional.
func parseMarker(raw string) (model.LabMarker, error) {
	parts := strings.Split(raw, "|")
	if len(parts) < 2 || len(parts) > 4 {
		return model.LabMarker{}, fmt.Errorf("invalid --marker %q (expected name|value|unit|flag)", raw)
	}
	m := model.LabMarker{Name: strings.TrimSpace(parts[0]), Value: strings.TrimSpace(parts[1])}
	if len(parts) > 2 {
		m.Unit = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		m.Flag = strings.TrimSpace(parts[3])
	}
	return m, nil
}

func labMarkersFromFlags() ([]model.LabMarker, error) {
	out := make([]model.LabMarker, 0, len(labMarkers))
	if labMarkersFile != "" {
		if err := readJSONFile(labMarkersFile, &out); err != nil {
			return nil, err
		}
	}
	for _, raw := range labMarkers {
		m, err := parseMarker(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

var labAddCmd = &cobra.Command{
	Use:   "add <patient-id>",
	Short: "Record a lab result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		markers, err := labMarkersFromFlags()
		if err != nil {
			return err
		}
		attachments, err := service.ResolveAttachments(labAttachments)
		if err != nil {
			return err
		}
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			id, err := service.AddLab(sqldb, args[0], service.LabInput{
				Name:        labName,
				Date:        labDate,
				Markers:     markers,
				Attachments: attachments,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added lab %s\n", id)
			return nil
		})
	},
}

var labListCmd = &cobra.Command{
	Use:   "list [patient-id]",
	Short: "List lab results with their markers",
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
			labs, err := service.ListLabs(sqldb, id)
			if err != nil {
				return err
			}
			if labJSON {
				return printJSON(cmd.OutOrStdout(), labs)
			}
			theme, err := service.GetTheme(sqldb)
			if err != nil {
				return err
			}
			st := newStyles(theme)
			out := cmd.OutOrStdout()
			for _, l := range labs {
				fmt.Fprintf(out, "%s %s %s (%d attachments)\n", st.Heading.Render(l.Name), l.Date, st.Muted.Render(l.ID), len(l.Attachments))
				for _, m := range l.Markers {
					flag := m.Flag
					switch m.Flag {
					case "high", "low":
						flag = st.Bad.Render(m.Flag)
					case "normal":
						flag = st.Good.Render(m.Flag)
					}
					fmt.Fprintf(out, "  %s\t%s %s\t%s\n", m.Name, m.Value, m.Unit, flag)
				}
			}
			return nil
		})
	},
}

var labUpdateCmd = &cobra.Command{
	Use:   "update <lab-id>",
	Short: "Update a lab result; --marker or --markers replaces all markers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			cur, _, err := service.GetLab(sqldb, args[0])
			if err != nil {
				return err
			}
			in := service.LabInput{Name: cur.Name, Date: cur.Date, Markers: cur.Markers, Attachments: cur.Attachments}
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = labName
			}
			if flags.Changed("date") {
				in.Date = labDate
			}
			if flags.Changed("marker") || flags.Changed("markers") {
				if in.Markers, err = labMarkersFromFlags(); err != nil {
					return err
				}
			}
			if flags.Changed("attach") {
				if in.Attachments, err = service.ResolveAttachments(labAttachments); err != nil {
					return err
				}
			}
			if err := service.UpdateLab(sqldb, args[0], in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated lab %s\n", args[0])
			return nil
		})
	},
}

var labDeleteCmd = &cobra.Command{
	Use:   "delete <lab-id>",
	Short: "Delete a lab result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			if err := service.DeleteLab(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted lab %s\n", args[0])
			return nil
		})
	},
}

func addLabFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&labName, "name", "", "Lab name (default Nuevo Análisis)")
	cmd.Flags().StringVar(&labDate, "date", "", "Lab date (YYYY-MM-DD, default today)")
	cmd.Flags().StringArrayVar(&labMarkers, "marker", nil, "Marker as name|value|unit|flag (repeatable)")
	cmd.Flags().StringVar(&labMarkersFile, "markers", "", "JSON file with a marker array")
	cmd.Flags().StringArrayVar(&labAttachments, "attach", nil, "Attachment file, URL or data URL (repeatable)")
}

func init() {
	rootCmd.AddCommand(labCmd)
	labCmd.AddCommand(labAddCmd, labListCmd, labUpdateCmd, labDeleteCmd)
	addLabFieldFlags(labAddCmd)
	addLabFieldFlags(labUpdateCmd)
	labListCmd.Flags().BoolVar(&labJSON, "json", false, "Print JSON")
}
