package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"intelhub/internal/core"
	"intelhub/internal/data"
)

func newImportFixture(t *testing.T) (*ImportService, *data.UserRepo, *data.IncidentRepo, *data.DatasetRepo) {
	t.Helper()
	db, err := data.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := data.NewUserRepo(db)
	incidents := data.NewIncidentRepo(db)
	tickets := data.NewTicketRepo(db)
	datasets := data.NewDatasetRepo(db)
	return NewImportService(users, incidents, tickets, datasets), users, incidents, datasets
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportUsers(t *testing.T) {
	svc, users, _, _ := newImportFixture(t)

	path := writeFile(t, "users.txt", `# seeded accounts
alice,$2a$10$hash1,admin
bob,$2a$10$hash2

charlie,$2a$10$hash3,analyst
malformed-line
`)

	report, err := svc.ImportUsers(path)
	if err != nil {
		t.Fatalf("ImportUsers failed: %v", err)
	}
	if report.Inserted != 3 {
		t.Errorf("expected 3 inserted, got %d", report.Inserted)
	}
	if report.Skipped != 1 {
		t.Errorf("expected 1 skipped (malformed), got %d", report.Skipped)
	}

	u, err := users.GetUserByUsername("bob")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != core.RoleUser {
		t.Errorf("missing role should default to user, got %q", u.Role)
	}

	// Second run: every username already exists
	report, err = svc.ImportUsers(path)
	if err != nil {
		t.Fatal(err)
	}
	if report.Inserted != 0 || report.Skipped != 4 {
		t.Errorf("rerun should skip everything, got %+v", report)
	}

	count, _ := users.CountUsers()
	if count != 3 {
		t.Errorf("expected 3 users after rerun, got %d", count)
	}
}

func TestImportUsersRejectsUnknownRole(t *testing.T) {
	svc, users, _, _ := newImportFixture(t)

	path := writeFile(t, "users.txt", `eve,$2a$10$hash,superadmin
dave,$2a$10$hash,analyst
`)

	report, err := svc.ImportUsers(path)
	if err != nil {
		t.Fatalf("ImportUsers failed: %v", err)
	}
	if report.Inserted != 1 || report.Skipped != 1 {
		t.Errorf("expected 1 inserted / 1 skipped, got %+v", report)
	}

	if _, err := users.GetUserByUsername("eve"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("user with unknown role must not be stored, got err=%v", err)
	}
	u, err := users.GetUserByUsername("dave")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != core.RoleAnalyst {
		t.Errorf("expected analyst, got %q", u.Role)
	}
}

func TestImportIncidentsCSV(t *testing.T) {
	svc, _, incidents, _ := newImportFixture(t)

	path := writeFile(t, "incidents.csv", `title,severity,status,date
Phishing,High,Open,2024-11-25
Ransomware,Critical,In Progress,2024-11-26
Bad Row,NotASeverity,Open,2024-11-27
`)

	report, err := svc.ImportIncidentsCSV(path)
	if err != nil {
		t.Fatalf("ImportIncidentsCSV failed: %v", err)
	}
	if report.Inserted != 2 || report.Skipped != 1 {
		t.Errorf("expected 2 inserted / 1 skipped, got %+v", report)
	}

	// Table is no longer empty, so a second load is a no-op
	report, err = svc.ImportIncidentsCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if report.Inserted != 0 {
		t.Errorf("non-empty table should not be reloaded, got %+v", report)
	}

	count, _ := incidents.Count()
	if count != 2 {
		t.Errorf("expected 2 incidents, got %d", count)
	}
}

func TestImportDatasetsCSV(t *testing.T) {
	svc, _, _, datasets := newImportFixture(t)

	path := writeFile(t, "datasets.csv", `name,source,category,size
network-flows,zeek,security,1048576
not-a-size,x,ops,huge
`)

	report, err := svc.ImportDatasetsCSV(path)
	if err != nil {
		t.Fatalf("ImportDatasetsCSV failed: %v", err)
	}
	if report.Inserted != 1 || report.Skipped != 1 {
		t.Errorf("expected 1 inserted / 1 skipped, got %+v", report)
	}

	all, _ := datasets.GetAll(core.DatasetFilter{})
	if len(all) != 1 || all[0].Size != 1048576 {
		t.Errorf("unexpected datasets: %+v", all)
	}
}

func TestImportMissingFile(t *testing.T) {
	svc, _, _, _ := newImportFixture(t)

	if _, err := svc.ImportUsers(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
