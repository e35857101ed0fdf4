package nutri

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

var anthroCmd = &cobra.Command{
	Use:   "anthro",
	Short: "Manage anthropometric measurements",
}

var (
	anthroDate       string
	anthroWeight     float64
	anthroWeightUnit string
	anthroHeight     float64
	anthroHeightUnit string
	anthroCirc       model.Circumference
	anthroFolds      model.Folds
	anthroActivity   float64
	anthroNotes      string
	anthroUnit       string
	anthroJSON       bool
)

func anthroInput() service.AnthropometryInput {
	return service.AnthropometryInput{
		Date:          anthroDate,
		Weight:        anthroWeight,
		WeightUnit:    anthroWeightUnit,
		Height:        anthroHeight,
		HeightUnit:    anthroHeightUnit,
		Circumference: anthroCirc,
		Folds:         anthroFolds,
		Activity:      anthroActivity,
		Notes:         anthroNotes,
	}
}

var anthroAddCmd = &cobra.Command{
	Use:   "add <patient-id>",
	Short: "Record a measurement; IMC, BMR and TDEE are derived",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			m, err := service.AddAnthropometry(sqldb, args[0], anthroInput())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added measurement %s (IMC %.1f, BMR %.0f, TDEE %.0f)\n", m.ID, m.IMC, m.BMR, m.TDEE)
			return nil
		})
	},
}

var anthroListCmd = &cobra.Command{
	Use:   "list [patient-id]",
	Short: "List measurements by date",
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
			items, err := service.ListAnthropometry(sqldb, id)
			if err != nil {
				return err
			}
			if anthroJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			unit := valueOr(anthroUnit, "kg")
			fmt.Fprintf(cmd.OutOrStdout(), "ID\tDATE\tWEIGHT (%s)\tHEIGHT (cm)\tIMC\tBMR\tTDEE\n", unit)
			for _, m := range items {
				w, err := service.WeightFromKg(m.Weight, unit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.1f\t%.0f\t%.1f\t%.0f\t%.0f\n", m.ID, m.Date, w, m.Height, m.IMC, m.BMR, m.TDEE)
			}
			return nil
		})
	},
}

var anthroShowCmd = &cobra.Command{
	Use:   "show <measurement-id>",
	Short: "Show a measurement with circumferences, folds and body composition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sqldb *sql.DB, u *model.User) error {
			m, patientID, err := service.GetAnthropometry(sqldb, args[0])
			if err != nil {
				return err
			}
			if err := service.CanAccessPatient(u, patientID); err != nil {
				return err
			}
			if anthroJSON {
				return printJSON(cmd.OutOrStdout(), m)
			}
			p, err := service.GetPatient(sqldb, patientID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", m.Date, p.Name)
			fmt.Fprintf(out, "Weight %.1f kg  Height %.0f cm  IMC %.1f\n", m.Weight, m.Height, m.IMC)
			fmt.Fprintf(out, "BMR %.0f kcal  TDEE %.0f kcal  Activity %s\n", m.BMR, m.TDEE, valueOr(service.ActivityLabel(m.Activity), "-"))
			c := m.Circumference
			fmt.Fprintf(out, "Circumference (cm): waist %g hip %g abdomen %g chest %g arm R %g arm L %g thigh %g calf %g\n",
				c.Waist, c.Hip, c.Abdomen, c.Chest, c.ArmR, c.ArmL, c.Thigh, c.Calf)
			f := m.Folds
			fmt.Fprintf(out, "Folds (mm): tricipital %g bicipital %g subscapular %g suprailiac %g abdominal %g quadriceps %g\n",
				f.Tricipital, f.Bicipital, f.Subscapular, f.Suprailiac, f.Abdominal, f.Quadriceps)
			stats := service.FoldSummary(f)
			fmt.Fprintf(out, "Fold sum %g mm  mean %g mm", stats.Sum, stats.Mean)
			if age, ok := service.Age(p.DOB, time.Now()); ok && stats.Sum > 0 {
				fmt.Fprintf(out, "  composition: %s", service.BodyComposition(p.Gender, age, stats.Mean))
			}
			fmt.Fprintln(out)
			if m.Notes != "" {
				fmt.Fprintf(out, "Notes: %s\n", m.Notes)
			}
			return nil
		})
	},
}

var anthroUpdateCmd = &cobra.Command{
	Use:   "update <measurement-id>",
	Short: "Replace a measurement's values and re-derive IMC, BMR and TDEE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			cur, _, err := service.GetAnthropometry(sqldb, args[0])
			if err != nil {
				return err
			}
			in := anthroInput()
			flags := cmd.Flags()
			if !flags.Changed("date") {
				in.Date = cur.Date
			}
			if !flags.Changed("weight") {
				in.Weight, in.WeightUnit = cur.Weight, "kg"
			}
			if !flags.Changed("height") {
				in.Height, in.HeightUnit = cur.Height, "cm"
			}
			if !flags.Changed("activity") {
				in.Activity = cur.Activity
			}
			if !flags.Changed("notes") {
				in.Notes = cur.Notes
			}
			if !anyChanged(cmd, circumferenceFlags) {
				in.Circumference = cur.Circumference
			}
			if !anyChanged(cmd, foldFlags) {
				in.Folds = cur.Folds
			}
			m, err := service.UpdateAnthropometry(sqldb, args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated measurement %s (IMC %.1f, BMR %.0f, TDEE %.0f)\n", m.ID, m.IMC, m.BMR, m.TDEE)
			return nil
		})
	},
}

var anthroDeleteCmd = &cobra.Command{
	Use:   "delete <measurement-id>",
	Short: "Delete a measurement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			if err := service.DeleteAnthropometry(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted measurement %s\n", args[0])
			return nil
		})
	},
}

var (
	circumferenceFlags = []string{"waist", "hip", "abdomen", "chest", "arm-r", "arm-l", "thigh", "calf"}
	foldFlags          = []string{"tricipital", "bicipital", "subscapular", "suprailiac", "abdominal", "quadriceps"}
)

func anyChanged(cmd *cobra.Command, names []string) bool {
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}

func addAnthroFieldFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&anthroDate, "date", "", "Measurement date (YYYY-MM-DD, default today)")
	f.Float64Var(&anthroWeight, "weight", 0, "Weight")
	f.StringVar(&anthroWeightUnit, "weight-unit", "kg", "Weight unit: kg or lb")
	f.Float64Var(&anthroHeight, "height", 0, "Height")
	f.StringVar(&anthroHeightUnit, "height-unit", "cm", "Height unit: cm or in")
	f.Float64Var(&anthroActivity, "activity", 0, "Activity factor: 1.2, 1.375, 1.55, 1.725 or 1.9 (default 1.2)")
	f.StringVar(&anthroNotes, "notes", "", "Notes")

	f.Float64Var(&anthroCirc.Waist, "waist", 0, "Waist (cm)")
	f.Float64Var(&anthroCirc.Hip, "hip", 0, "Hip (cm)")
	f.Float64Var(&anthroCirc.Abdomen, "abdomen", 0, "Abdomen (cm)")
	f.Float64Var(&anthroCirc.Chest, "chest", 0, "Chest (cm)")
	f.Float64Var(&anthroCirc.ArmR, "arm-r", 0, "Right arm (cm)")
	f.Float64Var(&anthroCirc.ArmL, "arm-l", 0, "Left arm (cm)")
	f.Float64Var(&anthroCirc.Thigh, "thigh", 0, "Thigh (cm)")
	f.Float64Var(&anthroCirc.Calf, "calf", 0, "Calf (cm)")

	f.Float64Var(&anthroFolds.Tricipital, "tricipital", 0, "Tricipital fold (mm)")
	f.Float64Var(&anthroFolds.Bicipital, "bicipital", 0, "Bicipital fold (mm)")
	f.Float64Var(&anthroFolds.Subscapular, "subscapular", 0, "Subscapular fold (mm)")
	f.Float64Var(&anthroFolds.Suprailiac, "suprailiac", 0, "Suprailiac fold (mm)")
	f.Float64Var(&anthroFolds.Abdominal, "abdominal", 0, "Abdominal fold (mm)")
	f.Float64Var(&anthroFolds.Quadriceps, "quadriceps", 0, "Quadriceps fold (mm)")
}

func init() {
	rootCmd.AddCommand(anthroCmd)
	anthroCmd.AddCommand(anthroAddCmd, anthroListCmd, anthroShowCmd, anthroUpdateCmd, anthroDeleteCmd)

	addAnthroFieldFlags(anthroAddCmd)
	addAnthroFieldFlags(anthroUpdateCmd)
	anthroListCmd.Flags().StringVar(&anthroUnit, "unit", "kg", "Display weight unit: kg or lb")
	anthroListCmd.Flags().BoolVar(&anthroJSON, "json", false, "Print JSON")
	anthroShowCmd.Flags().BoolVar(&anthroJSON, "json", false, "Print JSON")
}
