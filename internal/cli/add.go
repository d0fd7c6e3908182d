package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qaeu/melvor-activity-monitor/internal/activity"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append one event to the activity log",
		Run:   runAdd,
	}
	cmd.Flags().String("type", "", "Event category tag (required)")
	cmd.Flags().String("message", "", "Event message (required)")
	cmd.Flags().Float64("quantity", 0, "Quantity to accumulate across merges")
	cmd.Flags().String("media", "", "Media URL")
	cmd.Flags().String("custom-id", "", "Free-form id passed through unchanged")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("message")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	e, err := openEnv(cmd)
	if err != nil {
		exitErr("open store", err)
	}
	defer e.close(cmd.Context())

	ev := activity.Event{}
	ev.Type, _ = cmd.Flags().GetString("type")
	ev.Message, _ = cmd.Flags().GetString("message")
	ev.Media, _ = cmd.Flags().GetString("media")
	ev.CustomID, _ = cmd.Flags().GetString("custom-id")
	if cmd.Flags().Changed("quantity") {
		q, _ := cmd.Flags().GetFloat64("quantity")
		ev.Quantity = &q
	}

	if err := e.store.Add(ev); err != nil {
		exitErr("add", err)
	}
	if err := e.store.Flush(cmd.Context()); err != nil {
		exitErr("save", err)
	}
	fmt.Printf("added; %d records in log\n", len(e.store.GetAll()))
}
