package cli

import (
	"testing"

	"github.com/qaeu/melvor-activity-monitor/internal/activity"
)

func qty(v float64) *float64 { return &v }

func TestFilterDisabledMatchesEverything(t *testing.T) {
	f, err := newRecordFilter("")
	if err != nil {
		t.Fatalf("empty filter: %v", err)
	}
	if !f.Eval(activity.Record{Type: "anything"}) {
		t.Fatalf("disabled filter must match")
	}
}

func TestFilterByKindAndQuantity(t *testing.T) {
	f, err := newRecordFilter(`kind == "AddGP" && quantity > 100.0`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !f.Eval(activity.Record{Type: "AddGP", Quantity: qty(500)}) {
		t.Fatalf("matching record rejected")
	}
	if f.Eval(activity.Record{Type: "AddGP", Quantity: qty(50)}) {
		t.Fatalf("low quantity accepted")
	}
	if f.Eval(activity.Record{Type: "Error", Quantity: qty(500)}) {
		t.Fatalf("wrong kind accepted")
	}
}

func TestFilterMessageContains(t *testing.T) {
	f, err := newRecordFilter(`message.contains("failed") && !has_quantity`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !f.Eval(activity.Record{Type: "Error", Message: "fishing failed"}) {
		t.Fatalf("matching record rejected")
	}
	if f.Eval(activity.Record{Type: "Error", Message: "fishing failed", Quantity: qty(1)}) {
		t.Fatalf("quantity-bearing record accepted")
	}
}

func TestFilterRejectsBadExpression(t *testing.T) {
	if _, err := newRecordFilter(`kind ==`); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := newRecordFilter(`unknown_var == 1`); err == nil {
		t.Fatalf("expected check error")
	}
}
