package nutri

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

var patientCmd = &cobra.Command{
	Use:   "patient",
	Short: "Manage patients",
}

var (
	patientName          string
	patientEmail         string
	patientPhone         string
	patientDOB           string
	patientGender        string
	patientOccupation    string
	patientMarital       string
	patientAddress       string
	patientAvatar        string
	patientFrom          string
	patientLifestyleFile string
	patientClinicalFile  string
	patientSearch        string
	patientLimit         int
	patientJSON          bool
)

var patientAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a patient from flags or from an intake document (--from)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			if patientFrom != "" {
				raw, err := readInput(patientFrom)
				if err != nil {
					return err
				}
				in, err := service.ParseIntake(raw)
				if err != nil {
					return err
				}
				res, err := service.CreatePatientFromIntake(sqldb, in)
				if err != nil {
					return err
				}
				logger.Info("patient created from intake", zap.String("patient_id", res.PatientID))
				fmt.Fprintf(cmd.OutOrStdout(), "Created patient %s\n", res.PatientID)
				if res.AnthropometryID != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Initial measurement: %s\n", res.AnthropometryID)
				}
				if res.LabID != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Initial lab: %s\n", res.LabID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Intake note: %s\n", res.NoteID)
				return nil
			}
			in := service.PatientInput{
				Name:          patientName,
				Email:         patientEmail,
				Phone:         patientPhone,
				DOB:           patientDOB,
				Gender:        patientGender,
				Occupation:    patientOccupation,
				MaritalStatus: patientMarital,
				Address:       patientAddress,
				AvatarURL:     patientAvatar,
			}
			if patientLifestyleFile != "" {
				in.Lifestyle = &model.Lifestyle{}
				if err := readJSONFile(patientLifestyleFile, in.Lifestyle); err != nil {
					return err
				}
			}
			if patientClinicalFile != "" {
				in.Clinical = &model.ClinicalHistory{}
				if err := readJSONFile(patientClinicalFile, in.Clinical); err != nil {
					return err
				}
			}
			id, err := service.CreatePatient(sqldb, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created patient %s\n", id)
			return nil
		})
	},
}

var patientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List patients (search by name or email)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			items, err := service.ListPatients(sqldb, service.PatientFilter{Search: patientSearch, Limit: patientLimit})
			if err != nil {
				return err
			}
			if patientJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			now := time.Now()
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tAGE\tPHONE\tLAST VISIT\tNEXT APPOINTMENT")
			for _, it := range items {
				age := "-"
				if a, ok := service.Age(it.DOB, now); ok {
					age = strconv.Itoa(a)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\t%s\n",
					it.ID, it.Name, age, valueOr(it.Phone, "-"), valueOr(it.LastVisit, "-"), valueOr(it.NextAppointment, "-"))
			}
			return nil
		})
	},
}

var patientShowCmd = &cobra.Command{
	Use:   "show [patient-id]",
	Short: "Show a patient's record",
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
			p, err := service.GetPatient(sqldb, id)
			if err != nil {
				return err
			}
			if patientJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}
			theme, err := service.GetTheme(sqldb)
			if err != nil {
				return err
			}
			renderPatient(cmd, newStyles(theme), p, time.Now())
			return nil
		})
	},
}

func renderPatient(cmd *cobra.Command, st styles, p *model.Patient, now time.Time) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, st.Title.Render(p.Name))
	age := "-"
	if a, ok := service.Age(p.DOB, now); ok {
		age = strconv.Itoa(a)
	}
	fmt.Fprintf(out, "ID: %s\nAge: %s\tGender: %s\tDOB: %s\n", p.ID, age, p.Gender, valueOr(p.DOB, "-"))
	fmt.Fprintf(out, "Email: %s\tPhone: %s\n", valueOr(p.Email, "-"), valueOr(p.Phone, "-"))
	fmt.Fprintf(out, "Occupation: %s\tMarital status: %s\n", valueOr(p.Occupation, "-"), valueOr(p.MaritalStatus, "-"))
	if p.Clinical.Background.Motive != "" {
		fmt.Fprintf(out, "Motive: %s\n", p.Clinical.Background.Motive)
	}

	if n := len(p.Anthropometry); n > 0 {
		last := p.Anthropometry[n-1]
		for _, m := range p.Anthropometry {
			if m.Date >= last.Date {
				last = m
			}
		}
		fmt.Fprintln(out, st.Heading.Render("Last measurement"))
		fmt.Fprintf(out, "%s  weight %.1f kg  height %.0f cm  IMC %.1f  BMR %.0f  TDEE %.0f\n",
			last.Date, last.Weight, last.Height, last.IMC, last.BMR, last.TDEE)
	}
	for _, pl := range p.Plans {
		if pl.Active {
			fmt.Fprintln(out, st.Heading.Render("Active plan"))
			fmt.Fprintf(out, "%s (%d kcal) %s\n", pl.Name, pl.KcalTarget, st.Muted.Render(pl.ID))
		}
	}
	fmt.Fprintln(out, st.Muted.Render(fmt.Sprintf("%d notes, %d measurements, %d labs, %d plans, %d adherence days",
		len(p.Notes), len(p.Anthropometry), len(p.Labs), len(p.Plans), len(p.Adherence))))
}

var patientUpdateCmd = &cobra.Command{
	Use:   "update <patient-id>",
	Short: "Update the given patient fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := service.PatientPatch{}
		flags := cmd.Flags()
		text := func(name string, v *string) *string {
			if flags.Changed(name) {
				return v
			}
			return nil
		}
		patch.Name = text("name", &patientName)
		patch.Email = text("email", &patientEmail)
		patch.Phone = text("phone", &patientPhone)
		patch.DOB = text("dob", &patientDOB)
		patch.Gender = text("gender", &patientGender)
		patch.Occupation = text("occupation", &patientOccupation)
		patch.MaritalStatus = text("marital-status", &patientMarital)
		patch.Address = text("address", &patientAddress)
		patch.AvatarURL = text("avatar", &patientAvatar)
		if patientLifestyleFile != "" {
			patch.Lifestyle = &model.Lifestyle{}
			if err := readJSONFile(patientLifestyleFile, patch.Lifestyle); err != nil {
				return err
			}
		}
		if patientClinicalFile != "" {
			patch.Clinical = &model.ClinicalHistory{}
			if err := readJSONFile(patientClinicalFile, patch.Clinical); err != nil {
				return err
			}
		}
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			if err := service.UpdatePatient(sqldb, args[0], patch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated patient %s\n", args[0])
			return nil
		})
	},
}

var patientDeleteCmd = &cobra.Command{
	Use:   "delete <patient-id>",
	Short: "Delete a patient and every record they own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			if err := service.DeletePatient(sqldb, args[0]); err != nil {
				return err
			}
			logger.Info("patient deleted", zap.String("patient_id", args[0]))
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted patient %s\n", args[0])
			return nil
		})
	},
}

func addPatientFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&patientName, "name", "", "Full name")
	cmd.Flags().StringVar(&patientEmail, "email", "", "Email")
	cmd.Flags().StringVar(&patientPhone, "phone", "", "Phone")
	cmd.Flags().StringVar(&patientDOB, "dob", "", "Date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&patientGender, "gender", "", "Gender: M or F")
	cmd.Flags().StringVar(&patientOccupation, "occupation", "", "Occupation")
	cmd.Flags().StringVar(&patientMarital, "marital-status", "", "Marital status")
	cmd.Flags().StringVar(&patientAddress, "address", "", "Address")
	cmd.Flags().StringVar(&patientAvatar, "avatar", "", "Avatar URL")
	cmd.Flags().StringVar(&patientLifestyleFile, "lifestyle", "", "Lifestyle JSON file")
	cmd.Flags().StringVar(&patientClinicalFile, "clinical", "", "Clinical history JSON file")
}

func init() {
	rootCmd.AddCommand(patientCmd)
	patientCmd.AddCommand(patientAddCmd, patientListCmd, patientShowCmd, patientUpdateCmd, patientDeleteCmd)

	addPatientFieldFlags(patientAddCmd)
	addPatientFieldFlags(patientUpdateCmd)
	patientAddCmd.Flags().StringVar(&patientFrom, "from", "", "Intake JSON document (- for stdin)")

	patientListCmd.Flags().StringVar(&patientSearch, "search", "", "Filter by name or email")
	patientListCmd.Flags().IntVar(&patientLimit, "limit", 0, "Maximum rows")
	patientListCmd.Flags().BoolVar(&patientJSON, "json", false, "Print JSON")
	patientShowCmd.Flags().BoolVar(&patientJSON, "json", false, "Print JSON")
}
