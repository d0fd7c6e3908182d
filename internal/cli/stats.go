package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show log size and compression statistics",
		Run:   runStats,
	}
	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	e, err := openEnv(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer e.close(cmd.Context())

	st, err := e.store.Stats()
	if err != nil {
		exitErr("stats", err)
	}
	b, _ := json.MarshalIndent(st, "", "  ")
	fmt.Println(string(b))
}
