// Package activity implements the bounded activity log store.
//
// # Overview
//
// The store owns an in-memory record sequence ordered newest-first. Incoming
// events either merge into a recent record of the same kind (grouping) or
// prepend a new record; capacity ceilings evict from the tail. Persistence
// is a debounced full-snapshot overwrite: records are reduced to their
// minimal persisted form, compressed, wrapped in a text-safe envelope and
// handed to the mode-selected backend.
//
// API surface (internal)
//
//	st := activity.New(activity.Options{Settings: settings, Backends: backends, Media: media})
//	st.Load(ctx)
//
//	cancel := st.OnChange(func(ev activity.ChangeEvent) { ... })
//	defer cancel()
//
//	_ = st.Add(activity.Event{Type: "AddGP", Message: "Gained gold", Quantity: &qty})
//	recs := st.GetAll() // newest-first snapshot
//
//	stats, _ := st.Stats()
//	_ = st.ClearAll(ctx) // immediate, not debounced
//	_ = st.Close(ctx)
//
// Mutations update the sequence synchronously and notify observers before
// the eventual persistence. Callers expose the store to one logical writer;
// the internal mutex only covers the debounce goroutine's snapshots.
package activity
