package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Manually evict oldest records down to a count",
		Run:   runPrune,
	}
	cmd.Flags().Int("max-records", 0, "Records to keep (required)")
	cmd.MarkFlagRequired("max-records")

	RootCmd.AddCommand(cmd)
}

func runPrune(cmd *cobra.Command, args []string) {
	keep, _ := cmd.Flags().GetInt("max-records")
	if keep < 0 {
		exitErr("prune", fmt.Errorf("--max-records must not be negative"))
	}

	e, err := openEnv(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer e.close(cmd.Context())

	recs := e.store.GetAll()
	removed := 0
	for i := len(recs) - 1; i >= keep; i-- {
		if e.store.RemoveByID(recs[i].ID) {
			removed++
		}
	}
	if err := e.store.Flush(cmd.Context()); err != nil {
		exitErr("save", err)
	}
	fmt.Printf("pruned %d records; %d kept\n", removed, len(recs)-removed)
}
