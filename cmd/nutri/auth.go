package nutri

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as a clinician or a patient",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginEmail == "" || loginPassword == "" {
			return fmt.Errorf("--email and --password are required")
		}
		return withDB(func(sqldb *sql.DB) error {
			u, err := service.Login(sqldb, loginEmail, loginPassword)
			if err != nil {
				return err
			}
			if err := service.SetSession(sqldb, u.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.Name, u.Role)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.ClearSession(sqldb); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(sqldb *sql.DB, u *model.User) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s", u.Name, u.Email, u.Role)
			if u.PatientID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " patient=%s", u.PatientID)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		})
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage logins",
}

var (
	userEmail     string
	userPassword  string
	userName      string
	userRole      string
	userPatientID string
)

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a login",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			id, err := service.CreateUser(sqldb, service.UserInput{
				Email:     userEmail,
				Password:  userPassword,
				Name:      userName,
				Role:      model.Role(userRole),
				PatientID: userPatientID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s\n", id)
			return nil
		})
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logins",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, _ *model.User) error {
			users, err := service.ListUsers(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tEMAIL\tNAME\tROLE\tPATIENT")
			for _, u := range users {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role, valueOr(u.PatientID, "-"))
			}
			return nil
		})
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a login",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(func(sqldb *sql.DB, current *model.User) error {
			if args[0] == current.ID {
				return fmt.Errorf("cannot delete the logged-in user")
			}
			if err := service.DeleteUser(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, userCmd)
	userCmd.AddCommand(userAddCmd, userListCmd, userDeleteCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Login email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Login password")

	userAddCmd.Flags().StringVar(&userEmail, "email", "", "Email")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "Password")
	userAddCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userAddCmd.Flags().StringVar(&userRole, "role", string(model.RolePatient), "Role: admin or patient")
	userAddCmd.Flags().StringVar(&userPatientID, "patient", "", "Linked patient id (patient role)")
}
