package nutri

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage meal plans",
}

var (
	planName         string
	planKcal         int
	planActive       bool
	planSupplements  string
	planAvoid        string
	planProtein      float64
	planCarbs        float64
	planFats         float64
	planSectionsFile string
	planJSON         bool
	planOutDir       string
	planRaw          bool
)

func planMacros(cmd *cobra.Command) *model.Macronutrients {
	if !anyChanged(cmd, []string{"protein", "carbs", "fats"}) {
		return nil
	}
	return &model.Macronutrients{Protein: planProtein, Carbs: planCarbs, Fats: planFats}
}

func planSections() ([]model.MealSection, error) {
	if planSectionsFile == "" {
		return nil, nil
	}
	var sections []model.MealSection
	if err := readJSONFile(planSectionsFile, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

var planAddCmd = &cobra.Command{
	Use:   "add <patient-id>",
	Short: "Create a plan (Desayuno, Almuerzo and Cena sections unless --sections is given)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sections, err := planSections()
		if err != nil {
			return err
		}
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			id, err := service.AddPlan(sqldb, args[0], service.PlanInput{
				Name:           planName,
				KcalTarget:     planKcal,
				Active:         planActive,
				Sections:       sections,
				Supplements:    planSupplements,
				Avoid:          planAvoid,
				Macronutrients: planMacros(cmd),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added plan %s\n", id)
			return nil
		})
	},
}

var planListCmd = &cobra.Command{
	Use:   "list [patient-id]",
	Short: "List plans, newest first",
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
			plans, err := service.ListPlans(sqldb, id)
			if err != nil {
				return err
			}
			if planJSON {
				return printJSON(cmd.OutOrStdout(), plans)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tKCAL\tACTIVE\tCREATED")
			for _, p := range plans {
				active := ""
				if p.Active {
					active = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%s\t%s\n", p.ID, p.Name, p.KcalTarget, active, p.CreatedAt)
			}
			return nil
		})
	},
}

// loadPlanFor returns the plan after checking the session may see its patient.
func loadPlanFor(sqldb *sql.DB, u *model.User, planID string) (*model.Plan, *model.Patient, error) {
	p, patientID, err := service.GetPlan(sqldb, planID)
	if err != nil {
		return nil, nil, err
	}
	if err := service.CanAccessPatient(u, patientID); err != nil {
		return nil, nil, err
	}
	patient, err := service.GetPatient(sqldb, patientID)
	if err != nil {
		return nil, nil, err
	}
	return p, patient, nil
}

var planShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show a plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sqldb *sql.DB, u *model.User) error {
			p, patient, err := loadPlanFor(sqldb, u, args[0])
			if err != nil {
				return err
			}
			if planJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}
			out := cmd.OutOrStdout()
			status := "inactive"
			if p.Active {
				status = "active"
			}
			fmt.Fprintf(out, "%s (%s) for %s, %d kcal, created %s\n", p.Name, status, patient.Name, p.KcalTarget, p.CreatedAt)
			for _, s := range p.Sections {
				check, _ := service.MapSectionToCheck(s.Title)
				fmt.Fprintf(out, "%s %s\n", s.Title, valueOr(check, ""))
				for _, o := range s.Options {
					fmt.Fprintf(out, "  [%s] %s: %s\n", o.ID, o.Name, valueOr(o.Description, "-"))
				}
			}
			fmt.Fprintf(out, "Supplements: %s\nAvoid: %s\n", valueOr(p.Supplements, "-"), valueOr(p.Avoid, "-"))
			return nil
		})
	},
}

var planUpdateCmd = &cobra.Command{
	Use:   "update <plan-id>",
	Short: "Update the given plan fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			cur, _, err := service.GetPlan(sqldb, args[0])
			if err != nil {
				return err
			}
			in := service.PlanInput{
				Name:           cur.Name,
				KcalTarget:     cur.KcalTarget,
				Active:         cur.Active,
				Sections:       cur.Sections,
				Supplements:    cur.Supplements,
				Avoid:          cur.Avoid,
				Macronutrients: cur.Macronutrients,
				CreatedAt:      cur.CreatedAt,
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = planName
			}
			if flags.Changed("kcal") {
				in.KcalTarget = planKcal
			}
			if flags.Changed("active") {
				in.Active = planActive
			}
			if flags.Changed("supplements") {
				in.Supplements = planSupplements
			}
			if flags.Changed("avoid") {
				in.Avoid = planAvoid
			}
			if m := planMacros(cmd); m != nil {
				in.Macronutrients = m
			}
			if flags.Changed("sections") {
				if in.Sections, err = planSections(); err != nil {
					return err
				}
			}
			if err := service.UpdatePlan(sqldb, args[0], in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated plan %s\n", args[0])
			return nil
		})
	},
}

var planActivateCmd = &cobra.Command{
	Use:   "activate <plan-id>",
	Short: "Make a plan the patient's only active plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			if err := service.ActivatePlan(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Activated plan %s\n", args[0])
			return nil
		})
	},
}

var planDeleteCmd = &cobra.Command{
	Use:   "delete <plan-id>",
	Short: "Delete a plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			if err := service.DeletePlan(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted plan %s\n", args[0])
			return nil
		})
	},
}

var planPrintCmd = &cobra.Command{
	Use:   "print <plan-id>",
	Short: "Render the printable plan sheet, or write it as Plan_<name>.md with --out",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sqldb *sql.DB, u *model.User) error {
			p, patient, err := loadPlanFor(sqldb, u, args[0])
			if err != nil {
				return err
			}
			sheet := service.RenderPlanSheet(patient.Name, *p)
			if strings.TrimSpace(planOutDir) != "" {
				path := filepath.Join(planOutDir, service.PlanSheetFileName(patient.Name))
				if err := os.WriteFile(path, []byte(sheet), 0o644); err != nil {
					return fmt.Errorf("write plan sheet: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				return nil
			}
			if planRaw {
				fmt.Fprint(cmd.OutOrStdout(), sheet)
				return nil
			}
			renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
			if err != nil {
				return fmt.Errorf("create markdown renderer: %w", err)
			}
			rendered, err := renderer.Render(sheet)
			if err != nil {
				return fmt.Errorf("render plan sheet: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		})
	},
}

func addPlanFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&planName, "name", "", "Plan name (default Nuevo Plan Nutricional)")
	cmd.Flags().IntVar(&planKcal, "kcal", 0, "Daily kcal target")
	cmd.Flags().BoolVar(&planActive, "active", false, "Make this the active plan")
	cmd.Flags().StringVar(&planSupplements, "supplements", "", "Supplements")
	cmd.Flags().StringVar(&planAvoid, "avoid", "", "Foods to avoid")
	cmd.Flags().Float64Var(&planProtein, "protein", 0, "Protein (g)")
	cmd.Flags().Float64Var(&planCarbs, "carbs", 0, "Carbohydrates (g)")
	cmd.Flags().Float64Var(&planFats, "fats", 0, "Fats (g)")
	cmd.Flags().StringVar(&planSectionsFile, "sections", "", "JSON file with the meal sections")
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.AddCommand(planAddCmd, planListCmd, planShowCmd, planUpdateCmd, planActivateCmd, planDeleteCmd, planPrintCmd)
	addPlanFieldFlags(planAddCmd)
	addPlanFieldFlags(planUpdateCmd)
	planListCmd.Flags().BoolVar(&planJSON, "json", false, "Print JSON")
	planShowCmd.Flags().BoolVar(&planJSON, "json", false, "Print JSON")
	planPrintCmd.Flags().StringVar(&planOutDir, "out", "", "Directory to write the Markdown sheet to")
	planPrintCmd.Flags().BoolVar(&planRaw, "raw", false, "Print Markdown without terminal styling")
}
