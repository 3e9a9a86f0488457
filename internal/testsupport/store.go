package testsupport

import (
	"context"
	"testing"

	"lichtwerk/internal/backend"
	"lichtwerk/internal/config"
	"lichtwerk/internal/order"
	"lichtwerk/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewJob creates a job in st with a placeholder address.
func NewJob(t testing.TB, st backend.Admin) order.Job {
	t.Helper()

	job, err := st.CreateJob(context.Background(), backend.NewJob{
		Address:  "Lindenstraße 12, 10969 Berlin",
		Customer: "Makler Nord",
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return job
}
