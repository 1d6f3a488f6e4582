package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskflow/internal/app"
	"taskflow/internal/models"
	"taskflow/internal/services"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		in := services.NewUserInput{Role: models.RoleAdmin}
		in.Username, _ = cmd.Flags().GetString("username")
		in.Password, _ = cmd.Flags().GetString("password")
		in.FullName, _ = cmd.Flags().GetString("full-name")
		in.Email, _ = cmd.Flags().GetString("email")
		in.Department, _ = cmd.Flags().GetString("department")

		a, err := app.New(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.Users.Create(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %q (id %d)\n", u.Username, u.ID)
		return nil
	},
}

func init() {
	f := createAdminCmd.Flags()
	f.String("username", "", "login name")
	f.String("password", "", "initial password")
	f.String("full-name", "", "display name")
	f.String("email", "", "email for notifications")
	f.String("department", "Administration", "department")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createAdminCmd)
}
