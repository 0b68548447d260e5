package core

// UserRepository defines storage operations for user credentials
type UserRepository interface {
	CreateUser(username, passwordHash, role string) (*User, error)
	GetUserByUsername(username string) (*User, error)
	GetByID(id int64) (*User, error)
	GetAll() ([]User, error)
	UpdatePassword(username, passwordHash string) error
	CountUsers() (int, error)
}

// IncidentRepository defines storage operations for cyber incidents
type IncidentRepository interface {
	Create(inc *Incident) (int64, error)
	GetAll(filter IncidentFilter) ([]Incident, error)
	GetByID(id int64) (*Incident, error)
	Update(id int64, fields IncidentUpdate) (int64, error)
	Delete(id int64) (int64, error)
	CountByColumn(column string) (map[string]int, error)
	CountWhere(column, value string) (int, error)
	Count() (int, error)
}

// TicketRepository defines storage operations for IT tickets
type TicketRepository interface {
	Create(t *Ticket) (int64, error)
	GetAll(filter TicketFilter) ([]Ticket, error)
	GetByID(id int64) (*Ticket, error)
	Update(id int64, fields TicketUpdate) (int64, error)
	Delete(id int64) (int64, error)
	CountByColumn(column string) (map[string]int, error)
	CountWhere(column, value string) (int, error)
	Count() (int, error)
}

// DatasetRepository defines storage operations for dataset metadata
type DatasetRepository interface {
	Create(d *Dataset) (int64, error)
	GetAll(filter DatasetFilter) ([]Dataset, error)
	GetByID(id int64) (*Dataset, error)
	Update(id int64, fields DatasetUpdate) (int64, error)
	Delete(id int64) (int64, error)
	CountByColumn(column string) (map[string]int, error)
	CountWhere(column, value string) (int, error)
	Count() (int, error)
	TotalSize() (int64, error)
}

// List filters. Zero values mean "no restriction".
type IncidentFilter struct {
	Severity string
	Status   string
}

type TicketFilter struct {
	Priority string
	Status   string
}

type DatasetFilter struct {
	Category string
}

// Partial updates. Nil pointers leave the column untouched.
type IncidentUpdate struct {
	Title    *string
	Severity *string
	Status   *string
	Date     *string
}

type TicketUpdate struct {
	Title       *string
	Priority    *string
	Status      *string
	CreatedDate *string
}

type DatasetUpdate struct {
	Name     *string
	Source   *string
	Category *string
	Size     *int64
}
