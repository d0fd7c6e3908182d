package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all records and persist the empty log immediately",
		Run:   runClear,
	}
	RootCmd.AddCommand(cmd)
}

func runClear(cmd *cobra.Command, args []string) {
	e, err := openEnv(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer e.close(cmd.Context())

	if err := e.store.ClearAll(cmd.Context()); err != nil {
		exitErr("clear", err)
	}
	fmt.Println("cleared")
}
