// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/models"
)

// backends runs a subtest against every store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStore()
		defer s.Close()
		fn(t, s)
	})

	t.Run("badger", func(t *testing.T) {
		s, err := OpenBadgerStore(t.TempDir())
		if err != nil {
			t.Fatalf("open badger: %v", err)
		}
		defer s.Close()
		fn(t, s)
	})
}

func testInvestigation(id string, createdAt time.Time) *models.Investigation {
	return &models.Investigation{
		ID:        id,
		Status:    models.StatusCreated,
		Seed:      models.Seed{FullName: "Jane Doe"},
		CreatedAt: createdAt,
		Deadline:  createdAt.Add(2 * time.Hour),
	}
}

func TestSaveGetInvestigation(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		inv := testInvestigation("inv-1", time.Now().UTC().Truncate(time.Second))

		if err := s.SaveInvestigation(ctx, inv); err != nil {
			t.Fatalf("save: %v", err)
		}

		got, err := s.GetInvestigation(ctx, "inv-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.ID != inv.ID || got.Status != inv.Status || got.Seed.FullName != "Jane Doe" {
			t.Errorf("round trip mismatch: %+v", got)
		}

		// Mutating the returned copy must not affect the stored record.
		got.Status = models.StatusFailed
		again, err := s.GetInvestigation(ctx, "inv-1")
		if err != nil {
			t.Fatalf("get again: %v", err)
		}
		if again.Status != models.StatusCreated {
			t.Error("store must not share memory with callers")
		}
	})
}

func TestGetInvestigationNotFound(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		_, err := s.GetInvestigation(context.Background(), "missing")
		if fault.KindOf(err) != fault.KindNotFound {
			t.Errorf("expected not_found, got %v", err)
		}
	})
}

func TestSaveInvestigationRequiresID(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		err := s.SaveInvestigation(context.Background(), &models.Investigation{})
		if fault.KindOf(err) != fault.KindValidation {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestListInvestigationsOrderAndPaging(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Now().UTC().Truncate(time.Second)

		for i := 0; i < 5; i++ {
			inv := testInvestigation(fmt.Sprintf("inv-%d", i), base.Add(time.Duration(i)*time.Minute))
			if err := s.SaveInvestigation(ctx, inv); err != nil {
				t.Fatalf("save %d: %v", i, err)
			}
		}

		page, total, err := s.ListInvestigations(ctx, ListFilter{Limit: 2, Offset: 1})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 5 {
			t.Errorf("total = %d, want 5", total)
		}
		if len(page) != 2 {
			t.Fatalf("page size = %d, want 2", len(page))
		}
		// Newest first: inv-4, inv-3, inv-2... offset 1 starts at inv-3.
		if page[0].ID != "inv-3" || page[1].ID != "inv-2" {
			t.Errorf("page order = %s, %s", page[0].ID, page[1].ID)
		}
	})
}

func TestListInvestigationsStatusFilter(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Now().UTC()

		done := testInvestigation("inv-done", base)
		done.Status = models.StatusCompleted
		running := testInvestigation("inv-run", base.Add(time.Minute))
		running.Status = models.StatusFetching

		for _, inv := range []*models.Investigation{done, running} {
			if err := s.SaveInvestigation(ctx, inv); err != nil {
				t.Fatalf("save: %v", err)
			}
		}

		page, total, err := s.ListInvestigations(ctx, ListFilter{Status: models.StatusCompleted})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 1 || len(page) != 1 || page[0].ID != "inv-done" {
			t.Errorf("filtered list = %v (total %d)", page, total)
		}
	})
}

func TestDeleteInvestigationRemovesReport(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		inv := testInvestigation("inv-1", time.Now().UTC())
		if err := s.SaveInvestigation(ctx, inv); err != nil {
			t.Fatalf("save investigation: %v", err)
		}
		if err := s.SaveReport(ctx, &models.Report{InvestigationID: "inv-1"}); err != nil {
			t.Fatalf("save report: %v", err)
		}

		if err := s.DeleteInvestigation(ctx, "inv-1"); err != nil {
			t.Fatalf("delete: %v", err)
		}

		if _, err := s.GetInvestigation(ctx, "inv-1"); fault.KindOf(err) != fault.KindNotFound {
			t.Errorf("investigation still present: %v", err)
		}
		if _, err := s.GetReport(ctx, "inv-1"); fault.KindOf(err) != fault.KindNotFound {
			t.Errorf("report still present: %v", err)
		}

		if err := s.DeleteInvestigation(ctx, "inv-1"); fault.KindOf(err) != fault.KindNotFound {
			t.Errorf("double delete should be not_found, got %v", err)
		}
	})
}

func TestReportRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		rpt := &models.Report{
			InvestigationID:  "inv-1",
			GeneratedAt:      time.Now().UTC().Truncate(time.Second),
			ExecutiveSummary: "subject maintains a moderate public footprint",
		}

		if err := s.SaveReport(ctx, rpt); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, err := s.GetReport(ctx, "inv-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.InvestigationID != "inv-1" || got.ExecutiveSummary != rpt.ExecutiveSummary {
			t.Errorf("round trip mismatch: %+v", got)
		}

		if _, err := s.GetReport(ctx, "other"); fault.KindOf(err) != fault.KindNotFound {
			t.Errorf("expected not_found, got %v", err)
		}
	})
}

func TestExpire(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Now().UTC()

		old := testInvestigation("inv-old", now.Add(-48*time.Hour))
		old.RetainUntil = now.Add(-time.Hour)
		fresh := testInvestigation("inv-fresh", now)
		fresh.RetainUntil = now.Add(24 * time.Hour)
		unset := testInvestigation("inv-unset", now)

		for _, inv := range []*models.Investigation{old, fresh, unset} {
			if err := s.SaveInvestigation(ctx, inv); err != nil {
				t.Fatalf("save: %v", err)
			}
		}
		if err := s.SaveReport(ctx, &models.Report{InvestigationID: "inv-old"}); err != nil {
			t.Fatalf("save report: %v", err)
		}

		removed, err := s.Expire(ctx, now)
		if err != nil {
			t.Fatalf("expire: %v", err)
		}
		if removed != 1 {
			t.Errorf("removed = %d, want 1", removed)
		}

		if _, err := s.GetInvestigation(ctx, "inv-old"); fault.KindOf(err) != fault.KindNotFound {
			t.Error("expired investigation still present")
		}
		if _, err := s.GetReport(ctx, "inv-old"); fault.KindOf(err) != fault.KindNotFound {
			t.Error("expired report still present")
		}
		if _, err := s.GetInvestigation(ctx, "inv-fresh"); err != nil {
			t.Errorf("fresh investigation removed: %v", err)
		}
		if _, err := s.GetInvestigation(ctx, "inv-unset"); err != nil {
			t.Errorf("zero RetainUntil must never expire: %v", err)
		}
	})
}

func TestOpenSelectsBackend(t *testing.T) {
	s, err := Open(config.StoreConfig{})
	if err != nil {
		t.Fatalf("open default: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("default backend = %T, want *MemoryStore", s)
	}
	s.Close()

	b, err := Open(config.StoreConfig{Backend: "badger", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	if _, ok := b.(*BadgerStore); !ok {
		t.Errorf("badger backend = %T, want *BadgerStore", b)
	}
	b.Close()

	if _, err := Open(config.StoreConfig{Backend: "sqlite"}); fault.KindOf(err) != fault.KindValidation {
		t.Errorf("unknown backend should be a validation error, got %v", err)
	}
}
