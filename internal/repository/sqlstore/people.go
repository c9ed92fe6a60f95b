package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type customerRow struct {
	ID        int64  `db:"customer_id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Address   string `db:"address"`
	Email     string `db:"email"`
}

// Customers implements CustomerRepository. Email uniqueness is a table constraint.
type Customers struct{ db *DB }

func NewCustomers(db *DB) *Customers { return &Customers{db: db} }

var _ repository.CustomerRepository = (*Customers)(nil)

func (s *Customers) Create(ctx context.Context, c *domain.Customer) error {
	id, err := s.db.insert(ctx,
		`INSERT INTO customer (first_name, last_name, address, email) VALUES (?, ?, ?, ?)`,
		"customer_id", c.FirstName, c.LastName, c.Address, c.Email)
	if errors.Is(err, domain.ErrConflict) {
		return domain.Conflict("email already registered")
	}
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (s *Customers) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var row customerRow
	err := s.db.get(ctx, &row,
		`SELECT customer_id, first_name, last_name, address, email FROM customer WHERE customer_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("customer", id)
	}
	if err != nil {
		return nil, err
	}
	return &domain.Customer{ID: row.ID, FirstName: row.FirstName, LastName: row.LastName, Address: row.Address, Email: row.Email}, nil
}

type employeeRow struct {
	ID        int64          `db:"employee_id"`
	ManagerID sql.NullInt64  `db:"manager_id"`
	FirstName string         `db:"first_name"`
	LastName  sql.NullString `db:"last_name"`
	IsManager bool           `db:"is_manager"`
	HireDate  time.Time      `db:"hire_date"`
}

// Employees implements EmployeeRepository.
type Employees struct{ db *DB }

func NewEmployees(db *DB) *Employees { return &Employees{db: db} }

var _ repository.EmployeeRepository = (*Employees)(nil)

func (s *Employees) Create(ctx context.Context, e *domain.Employee) error {
	id, err := s.db.insert(ctx,
		`INSERT INTO employee (manager_id, first_name, last_name, is_manager, hire_date) VALUES (?, ?, ?, ?, ?)`,
		"employee_id", nullID(e.ManagerID), e.FirstName, e.LastName, e.IsManager, e.HireDate)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func (s *Employees) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	var row employeeRow
	err := s.db.get(ctx, &row,
		`SELECT employee_id, manager_id, first_name, last_name, is_manager, hire_date FROM employee WHERE employee_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("employee", id)
	}
	if err != nil {
		return nil, err
	}
	e := &domain.Employee{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName.String,
		IsManager: row.IsManager,
		HireDate:  row.HireDate.UTC(),
	}
	if row.ManagerID.Valid {
		m := row.ManagerID.Int64
		e.ManagerID = &m
	}
	return e, nil
}
