package data

import (
	"errors"
	"testing"

	"intelhub/internal/core"
)

func TestTicketLifecycle(t *testing.T) {
	repo := NewTicketRepo(newTestDB(t))

	id, err := repo.Create(&core.Ticket{Title: "VPN down", Priority: core.PriorityHigh, CreatedDate: "2024-11-20"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "VPN down" || got.Priority != core.PriorityHigh || got.Status != core.StatusOpen {
		t.Errorf("unexpected ticket: %+v", got)
	}

	status := core.StatusInProgress
	if n, err := repo.Update(id, core.TicketUpdate{Status: &status}); err != nil || n != 1 {
		t.Fatalf("Update: (%d, %v)", n, err)
	}
	got, _ = repo.GetByID(id)
	if got.Status != core.StatusInProgress {
		t.Errorf("status not updated: %q", got.Status)
	}

	if n, _ := repo.Delete(id); n != 1 {
		t.Errorf("expected delete count 1, got %d", n)
	}
	if _, err := repo.GetByID(id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if n, _ := repo.Delete(id); n != 0 {
		t.Errorf("repeated delete should be 0, got %d", n)
	}
}

func TestTicketValidation(t *testing.T) {
	repo := NewTicketRepo(newTestDB(t))

	if _, err := repo.Create(&core.Ticket{Priority: core.PriorityLow}); !core.IsValidationError(err) {
		t.Errorf("empty title: expected ValidationError, got %v", err)
	}
	if _, err := repo.Create(&core.Ticket{Title: "x", Priority: "Urgent"}); !core.IsValidationError(err) {
		t.Errorf("bad priority: expected ValidationError, got %v", err)
	}
}

func TestTicketFilterAndAggregates(t *testing.T) {
	repo := NewTicketRepo(newTestDB(t))

	repo.Create(&core.Ticket{Title: "a", Priority: core.PriorityHigh})
	repo.Create(&core.Ticket{Title: "b", Priority: core.PriorityHigh})
	repo.Create(&core.Ticket{Title: "c", Priority: core.PriorityLow})

	high, err := repo.GetAll(core.TicketFilter{Priority: core.PriorityHigh})
	if err != nil {
		t.Fatal(err)
	}
	if len(high) != 2 {
		t.Errorf("expected 2 high tickets, got %d", len(high))
	}

	byPriority, err := repo.CountByColumn("priority")
	if err != nil {
		t.Fatal(err)
	}
	if byPriority[core.PriorityHigh] != 2 || byPriority[core.PriorityLow] != 1 {
		t.Errorf("unexpected counts: %v", byPriority)
	}
}
