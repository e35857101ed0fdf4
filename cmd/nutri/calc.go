package nutri

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutri-cli/internal/service"
)

var (
	calcWeight     float64
	calcWeightUnit string
	calcHeight     float64
	calcHeightUnit string
	calcAge        int
	calcGender     string
	calcActivity   float64
	calcGoal       string
	calcJSON       bool
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Energy calculator: BMR, TDEE, goal target and macros",
	RunE: func(cmd *cobra.Command, args []string) error {
		weight, err := service.ToKg(calcWeight, calcWeightUnit)
		if err != nil {
			return err
		}
		height, err := service.ToCm(calcHeight, calcHeightUnit)
		if err != nil {
			return err
		}
		res, err := service.Calculate(service.CalculatorInput{
			WeightKg: weight,
			HeightCm: height,
			Age:      calcAge,
			Gender:   calcGender,
			Activity: calcActivity,
			Goal:     service.EnergyGoal(calcGoal),
		})
		if err != nil {
			return err
		}
		if calcJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "BMR: %.0f kcal\n", res.BMR)
		fmt.Fprintf(out, "TDEE: %.0f kcal\n", res.TDEE)
		fmt.Fprintf(out, "Target (%s): %.0f kcal\n", valueOr(calcGoal, string(service.GoalMaintain)), res.Target)
		fmt.Fprintf(out, "Protein: %.0f g  Fat: %.0f g  Carbs: %.0f g\n", res.ProteinG, res.FatG, res.CarbsG)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(calcCmd)
	calcCmd.Flags().Float64Var(&calcWeight, "weight", 0, "Weight")
	calcCmd.Flags().StringVar(&calcWeightUnit, "weight-unit", "kg", "Weight unit: kg or lb")
	calcCmd.Flags().Float64Var(&calcHeight, "height", 0, "Height")
	calcCmd.Flags().StringVar(&calcHeightUnit, "height-unit", "cm", "Height unit: cm or in")
	calcCmd.Flags().IntVar(&calcAge, "age", 0, "Age in years")
	calcCmd.Flags().StringVar(&calcGender, "gender", "F", "Gender: M or F")
	calcCmd.Flags().Float64Var(&calcActivity, "activity", service.DefaultActivityFactor, "Activity factor")
	calcCmd.Flags().StringVar(&calcGoal, "goal", string(service.GoalMaintain), "Goal: maintain, lose or gain")
	calcCmd.Flags().BoolVar(&calcJSON, "json", false, "Print JSON")
}
