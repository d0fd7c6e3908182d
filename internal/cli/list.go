package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records, newest first",
		Long: "List records, newest first. --filter takes a CEL expression over\n" +
			"kind, message, count, quantity, has_quantity, custom_id, ts_ms and now_ms,\n" +
			`e.g. --filter 'kind == "AddGP" && quantity > 100.0'`,
		Run: runList,
	}
	cmd.Flags().Int("limit", 0, "Maximum records to print (0 = all)")
	cmd.Flags().String("filter", "", "CEL filter expression")
	cmd.Flags().Bool("json", false, "Print records as JSON")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	expr, _ := cmd.Flags().GetString("filter")
	filter, err := newRecordFilter(expr)
	if err != nil {
		exitErr("filter", err)
	}

	e, err := openEnv(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer e.close(cmd.Context())

	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	printed := 0
	for _, r := range e.store.GetAll() {
		if !filter.Eval(r) {
			continue
		}
		if asJSON {
			b, _ := json.Marshal(r)
			fmt.Println(string(b))
		} else {
			ts := time.UnixMilli(r.Timestamp).Format(time.RFC3339)
			line := fmt.Sprintf("%s  %-12s x%-4d %s", ts, r.Type, r.Count, r.Message)
			if r.Quantity != nil {
				line += fmt.Sprintf("  (%g)", *r.Quantity)
			}
			fmt.Println(line)
		}
		printed++
		if limit > 0 && printed >= limit {
			break
		}
	}
}
