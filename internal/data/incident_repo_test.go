package data

import (
	"errors"
	"testing"

	"intelhub/internal/core"
)

func TestIncidentCreateAndGet(t *testing.T) {
	repo := NewIncidentRepo(newTestDB(t))

	in := &core.Incident{Title: "Phishing", Severity: core.SeverityHigh, Status: core.StatusOpen, Date: "2024-11-25"}
	id, err := repo.Create(in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected storage-assigned id")
	}

	got, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != in.Title || got.Severity != in.Severity || got.Status != in.Status || got.Date != in.Date {
		t.Errorf("round trip mismatch: %+v vs %+v", got, in)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at was not set")
	}
}

func TestIncidentCreateDefaultsStatus(t *testing.T) {
	repo := NewIncidentRepo(newTestDB(t))

	inc := &core.Incident{Title: "Malware", Severity: core.SeverityLow}
	id, err := repo.Create(inc)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := repo.GetByID(id)
	if got.Status != core.StatusOpen {
		t.Errorf("expected default status Open, got %q", got.Status)
	}
}

func TestIncidentValidation(t *testing.T) {
	repo := NewIncidentRepo(newTestDB(t))

	cases := []struct {
		name string
		inc  core.Incident
	}{
		{"empty title", core.Incident{Severity: core.SeverityLow}},
		{"bad severity", core.Incident{Title: "x", Severity: "Apocalyptic"}},
		{"bad status", core.Incident{Title: "x", Severity: core.SeverityLow, Status: "Lost"}},
	}
	for _, tc := range cases {
		if _, err := repo.Create(&tc.inc); !core.IsValidationError(err) {
			t.Errorf("%s: expected ValidationError, got %v", tc.name, err)
		}
	}

	// Invalid enum on update is rejected too
	id, _ := repo.Create(&core.Incident{Title: "x", Severity: core.SeverityLow})
	bad := "Apocalyptic"
	if _, err := repo.Update(id, core.IncidentUpdate{Severity: &bad}); !core.IsValidationError(err) {
		t.Errorf("update: expected ValidationError, got %v", err)
	}
}

func TestIncidentListOrderAndFilter(t *testing.T) {
	repo := NewIncidentRepo(newTestDB(t))

	repo.Create(&core.Incident{Title: "a", Severity: core.SeverityLow})
	repo.Create(&core.Incident{Title: "b", Severity: core.SeverityHigh})
	repo.Create(&core.Incident{Title: "c", Severity: core.SeverityHigh, Status: core.StatusClosed})

	all, err := repo.GetAll(core.IncidentFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 incidents, got %d", len(all))
	}
	// Most-recent-first
	if all[0].Title != "c" || all[2].Title != "a" {
		t.Errorf("expected id-descending order, got %v %v %v", all[0].Title, all[1].Title, all[2].Title)
	}

	high, err := repo.GetAll(core.IncidentFilter{Severity: core.SeverityHigh})
	if err != nil {
		t.Fatal(err)
	}
	if len(high) != 2 {
		t.Errorf("expected 2 High incidents, got %d", len(high))
	}

	highOpen, _ := repo.GetAll(core.IncidentFilter{Severity: core.SeverityHigh, Status: core.StatusOpen})
	if len(highOpen) != 1 || highOpen[0].Title != "b" {
		t.Errorf("combined filter wrong: %+v", highOpen)
	}

	none, err := repo.GetAll(core.IncidentFilter{Status: core.StatusResolved})
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected empty slice for no matches, got %d", len(none))
	}
}

func TestIncidentUpdate(t *testing.T) {
	repo := NewIncidentRepo(newTestDB(t))

	id, _ := repo.Create(&core.Incident{Title: "Phishing", Severity: core.SeverityHigh})

	status := core.StatusResolved
	n, err := repo.Update(id, core.IncidentUpdate{Status: &status})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 affected row, got %d", n)
	}

	got, _ := repo.GetByID(id)
	if got.Status != core.StatusResolved {
		t.Errorf("status not updated: %q", got.Status)
	}
	if got.Title != "Phishing" {
		t.Errorf("partial update touched other fields: %q", got.Title)
	}

	// Missing id: affected count 0, no error, no row created
	n, err = repo.Update(9999, core.IncidentUpdate{Status: &status})
	if err != nil || n != 0 {
		t.Errorf("expected (0, nil) for missing id, got (%d, %v)", n, err)
	}
	all, _ := repo.GetAll(core.IncidentFilter{})
	if len(all) != 1 {
		t.Errorf("update must never create rows, got %d", len(all))
	}

	// Empty update is a no-op
	n, err = repo.Update(id, core.IncidentUpdate{})
	if err != nil || n != 0 {
		t.Errorf("expected (0, nil) for empty update, got (%d, %v)", n, err)
	}
}

func TestIncidentDeleteIdempotent(t *testing.T) {
	repo := NewIncidentRepo(newTestDB(t))

	id, _ := repo.Create(&core.Incident{Title: "x", Severity: core.SeverityLow})

	n, err := repo.Delete(id)
	if err != nil || n != 1 {
		t.Fatalf("expected (1, nil), got (%d, %v)", n, err)
	}
	if _, err := repo.GetByID(id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	n, err = repo.Delete(id)
	if err != nil || n != 0 {
		t.Errorf("second delete should report (0, nil), got (%d, %v)", n, err)
	}
}

func TestIncidentListCardinality(t *testing.T) {
	repo := NewIncidentRepo(newTestDB(t))

	const created = 5
	ids := make([]int64, 0, created)
	for i := 0; i < created; i++ {
		id, err := repo.Create(&core.Incident{Title: "inc", Severity: core.SeverityMedium})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	repo.Delete(ids[0])
	repo.Delete(ids[3])

	all, err := repo.GetAll(core.IncidentFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != created-2 {
		t.Fatalf("expected %d rows, got %d", created-2, len(all))
	}
	seen := map[int64]bool{}
	for _, inc := range all {
		if seen[inc.ID] {
			t.Errorf("duplicate id %d", inc.ID)
		}
		seen[inc.ID] = true
	}
}

func TestIncidentAggregates(t *testing.T) {
	repo := NewIncidentRepo(newTestDB(t))

	repo.Create(&core.Incident{Title: "a", Severity: core.SeverityHigh})
	repo.Create(&core.Incident{Title: "b", Severity: core.SeverityHigh, Status: core.StatusClosed})
	repo.Create(&core.Incident{Title: "c", Severity: core.SeverityLow})

	bySeverity, err := repo.CountByColumn("severity")
	if err != nil {
		t.Fatal(err)
	}
	if bySeverity[core.SeverityHigh] != 2 || bySeverity[core.SeverityLow] != 1 {
		t.Errorf("unexpected severity counts: %v", bySeverity)
	}

	open, err := repo.CountWhere("status", core.StatusOpen)
	if err != nil {
		t.Fatal(err)
	}
	if open != 2 {
		t.Errorf("expected 2 open incidents, got %d", open)
	}

	// Unknown columns never reach the SQL layer
	if _, err := repo.CountByColumn("id; DROP TABLE users"); !core.IsValidationError(err) {
		t.Errorf("expected ValidationError for disallowed column, got %v", err)
	}
	if _, err := repo.CountWhere("password_hash", "x"); !core.IsValidationError(err) {
		t.Errorf("expected ValidationError for disallowed column, got %v", err)
	}
}
