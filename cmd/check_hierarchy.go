package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taskflow/internal/app"
)

var errHierarchyCycles = errors.New("manager hierarchy has cycles")

var checkHierarchyCmd = &cobra.Command{
	Use:   "check-hierarchy",
	Short: "Report users whose manager chain loops back on itself",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		a, err := app.New(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		members, err := a.Users.CycleMembers(cmd.Context())
		if err != nil {
			return err
		}
		return reportCycles(cmd.OutOrStdout(), members)
	},
}

func reportCycles(w io.Writer, members []int64) error {
	if len(members) == 0 {
		fmt.Fprintln(w, "hierarchy ok: no manager cycles")
		return nil
	}
	fmt.Fprintf(w, "%d users sit on manager cycles:\n", len(members))
	for _, id := range members {
		fmt.Fprintf(w, "  user %d\n", id)
	}
	return errHierarchyCycles
}

func init() {
	rootCmd.AddCommand(checkHierarchyCmd)
}
