package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mossfirth/hearthward/internal/model"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so store helpers can run
// standalone or inside the redemption write transaction.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func (s *HouseholdStore) Create(name, timezone string) (*model.Household, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, &model.ValidationError{Field: "timezone", Message: "unknown IANA timezone"}
	}

	result, err := s.db.Exec(
		`INSERT INTO households (name, timezone, created_at) VALUES (?, ?, ?)`,
		name, timezone, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) GetByID(id int64) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT id, name, timezone, created_at FROM households WHERE id = ?`, id)
	var h model.Household
	err := row.Scan(&h.ID, &h.Name, &h.Timezone, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return &h, nil
}

// householdLocation loads the household's timezone for day-boundary math.
// A missing or bad timezone falls back to UTC rather than failing the caller.
func householdLocation(q dbtx, householdID int64) *time.Location {
	var tz string
	err := q.QueryRow(`SELECT timezone FROM households WHERE id = ?`, householdID).Scan(&tz)
	if err != nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

const memberCols = `id, household_id, name, avatar_emoji, sort_order, created_at`

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.Name, &m.AvatarEmoji, &m.SortOrder, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MemberStore) Create(householdID int64, name, avatarEmoji string) (*model.Member, error) {
	result, err := s.db.Exec(
		`INSERT INTO members (household_id, name, avatar_emoji, created_at) VALUES (?, ?, ?, ?)`,
		householdID, name, avatarEmoji, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) ListByHousehold(householdID int64) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM members WHERE household_id = ? ORDER BY sort_order ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}
