package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"intelhub/internal/core"
	"intelhub/internal/logger"
)

// ImportService loads seed data from delimited text files supplied by
// external collaborators. All loads are idempotent: user rows whose username
// already exists are skipped, and the CSV loaders only run against an empty
// table.
type ImportService struct {
	userRepo     core.UserRepository
	incidentRepo core.IncidentRepository
	ticketRepo   core.TicketRepository
	datasetRepo  core.DatasetRepository
}

func NewImportService(userRepo core.UserRepository, incidentRepo core.IncidentRepository, ticketRepo core.TicketRepository, datasetRepo core.DatasetRepository) *ImportService {
	return &ImportService{
		userRepo:     userRepo,
		incidentRepo: incidentRepo,
		ticketRepo:   ticketRepo,
		datasetRepo:  datasetRepo,
	}
}

type Report struct {
	Inserted int
	Skipped  int
}

// ImportUsers reads one credential per line: username,password_hash[,role].
// Blank lines and # comments are ignored. Passwords arrive pre-hashed; this
// path never sees plaintext.
func (s *ImportService) ImportUsers(path string) (Report, error) {
	var report Report

	f, err := os.Open(path)
	if err != nil {
		return report, fmt.Errorf("open users file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return report, err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			report.Skipped++
			continue
		}
		username := strings.TrimSpace(parts[0])
		passwordHash := strings.TrimSpace(parts[1])
		role := core.RoleUser
		if len(parts) >= 3 && strings.TrimSpace(parts[2]) != "" {
			role = strings.TrimSpace(parts[2])
		}
		if !core.ValidRole(role) {
			logger.Error.Printf("user %q has unknown role %q, skipping", username, role)
			report.Skipped++
			continue
		}

		_, err := s.userRepo.CreateUser(username, passwordHash, role)
		if errors.Is(err, core.ErrUsernameTaken) {
			logger.Info.Printf("user %q already exists, skipping", username)
			report.Skipped++
			continue
		}
		if err != nil {
			return report, fmt.Errorf("import user %q: %w", username, err)
		}
		report.Inserted++
	}

	return report, nil
}

// ImportIncidentsCSV bulk-loads cyber_incidents from a CSV with a header row
// (title,severity,status,date). The load only runs when the table is empty.
func (s *ImportService) ImportIncidentsCSV(path string) (Report, error) {
	var report Report

	count, err := s.incidentRepo.Count()
	if err != nil {
		return report, err
	}
	if count > 0 {
		return report, nil
	}

	return readCSV(path, func(row map[string]string) error {
		inc := &core.Incident{
			Title:    row["title"],
			Severity: row["severity"],
			Status:   row["status"],
			Date:     row["date"],
		}
		_, err := s.incidentRepo.Create(inc)
		return err
	})
}

// ImportTicketsCSV bulk-loads it_tickets (title,priority,status,created_date).
func (s *ImportService) ImportTicketsCSV(path string) (Report, error) {
	var report Report

	count, err := s.ticketRepo.Count()
	if err != nil {
		return report, err
	}
	if count > 0 {
		return report, nil
	}

	return readCSV(path, func(row map[string]string) error {
		t := &core.Ticket{
			Title:       row["title"],
			Priority:    row["priority"],
			Status:      row["status"],
			CreatedDate: row["created_date"],
		}
		_, err := s.ticketRepo.Create(t)
		return err
	})
}

// ImportDatasetsCSV bulk-loads datasets_metadata (name,source,category,size).
func (s *ImportService) ImportDatasetsCSV(path string) (Report, error) {
	var report Report

	count, err := s.datasetRepo.Count()
	if err != nil {
		return report, err
	}
	if count > 0 {
		return report, nil
	}

	return readCSV(path, func(row map[string]string) error {
		size, err := strconv.ParseInt(strings.TrimSpace(row["size"]), 10, 64)
		if err != nil {
			return core.NewValidationError("size", "not an integer")
		}
		d := &core.Dataset{
			Name:     row["name"],
			Source:   row["source"],
			Category: row["category"],
			Size:     size,
		}
		_, err = s.datasetRepo.Create(d)
		return err
	})
}

// readCSV streams rows through insert, logging and skipping rows that fail
// validation so one bad line doesn't abort the whole load.
func readCSV(path string, insert func(row map[string]string) error) (Report, error) {
	var report Report

	f, err := os.Open(path)
	if err != nil {
		return report, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return report, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Error.Printf("malformed csv row in %s: %v", path, err)
			report.Skipped++
			continue
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}

		if err := insert(row); err != nil {
			if core.IsValidationError(err) {
				logger.Error.Printf("skipping csv row in %s: %v", path, err)
				report.Skipped++
				continue
			}
			return report, err
		}
		report.Inserted++
	}

	return report, nil
}
