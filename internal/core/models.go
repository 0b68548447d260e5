package core

import (
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is the authenticated identity handed to the presentation layer.
// The core keeps no session state between calls; the HTTP layer stores this
// in the cookie session and passes it back in.
type Session struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

type Incident struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Severity  string    `json:"severity"`
	Status    string    `json:"status"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

type Ticket struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedDate string    `json:"created_date"`
	CreatedAt   time.Time `json:"created_at"`
}

type Dataset struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Category  string    `json:"category"`
	Size      int64     `json:"size"` // bytes
	CreatedAt time.Time `json:"created_at"`
}

// Roles
const (
	RoleAdmin   = "admin"
	RoleUser    = "user"
	RoleAnalyst = "analyst"
)

// Incident severities
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

// Record statuses, shared by incidents and tickets
const (
	StatusOpen       = "Open"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusClosed     = "Closed"
)

// Ticket priorities
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

var (
	Roles      = []string{RoleAdmin, RoleUser, RoleAnalyst}
	Severities = []string{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	Statuses   = []string{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}
	Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}
)

func ValidRole(s string) bool     { return contains(Roles, s) }
func ValidSeverity(s string) bool { return contains(Severities, s) }
func ValidStatus(s string) bool   { return contains(Statuses, s) }
func ValidPriority(s string) bool { return contains(Priorities, s) }

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
