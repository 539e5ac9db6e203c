package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mossfirth/hearthward/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

const rewardCols = `id, household_id, name, description, cost_points, category, emoji,
	max_redemptions_per_week, active, created_by, created_at, updated_at`

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var active int
	var maxPerWeek sql.NullInt64
	var createdBy sql.NullInt64

	err := scanner.Scan(&r.ID, &r.HouseholdID, &r.Name, &r.Description, &r.CostPoints,
		&r.Category, &r.Emoji, &maxPerWeek, &active, &createdBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	r.Active = active != 0
	if maxPerWeek.Valid {
		v := int(maxPerWeek.Int64)
		r.MaxRedemptionsPerWeek = &v
	}
	if createdBy.Valid {
		r.CreatedBy = &createdBy.Int64
	}
	return &r, nil
}

// RewardInput is the boundary for catalog writes. Validation runs before any
// write is accepted; category defaults to "other" when omitted.
type RewardInput struct {
	Name                  string
	Description           string
	CostPoints            int
	Category              model.RewardCategory
	Emoji                 string
	MaxRedemptionsPerWeek *int
	Active                bool
}

func (in *RewardInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	// Length limits are in characters, not bytes; emoji-heavy names count
	// by rune.
	if n := utf8.RuneCountInString(in.Name); n < 2 || n > 100 {
		return &model.ValidationError{Field: "name", Message: "must be 2-100 characters"}
	}
	if utf8.RuneCountInString(in.Description) > 500 {
		return &model.ValidationError{Field: "description", Message: "must be at most 500 characters"}
	}
	if in.CostPoints < 1 || in.CostPoints > 10000 {
		return &model.ValidationError{Field: "cost_points", Message: "must be between 1 and 10000"}
	}
	if in.Category == "" {
		in.Category = model.CategoryOther
	}
	if !in.Category.Valid() {
		return &model.ValidationError{Field: "category", Message: "unknown category"}
	}
	if in.MaxRedemptionsPerWeek != nil {
		if v := *in.MaxRedemptionsPerWeek; v < 1 || v > 99 {
			return &model.ValidationError{Field: "max_redemptions_per_week", Message: "must be null or between 1 and 99"}
		}
	}
	return nil
}

func (s *RewardStore) Create(householdID int64, createdBy *int64, in RewardInput) (*model.Reward, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var active int
	if in.Active {
		active = 1
	}
	var maxPerWeek sql.NullInt64
	if in.MaxRedemptionsPerWeek != nil {
		maxPerWeek = sql.NullInt64{Int64: int64(*in.MaxRedemptionsPerWeek), Valid: true}
	}
	var creator sql.NullInt64
	if createdBy != nil {
		creator = sql.NullInt64{Int64: *createdBy, Valid: true}
	}

	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO rewards (household_id, name, description, cost_points, category, emoji,
		 max_redemptions_per_week, active, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, in.Name, in.Description, in.CostPoints, string(in.Category), in.Emoji,
		maxPerWeek, active, creator, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) GetByID(id int64) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// List returns the household's catalog, active first then by name. Inactive
// rewards are hidden unless includeInactive is set.
func (s *RewardStore) List(householdID int64, includeInactive bool) ([]model.Reward, error) {
	query := `SELECT ` + rewardCols + ` FROM rewards WHERE household_id = ?`
	if !includeInactive {
		query += ` AND active = 1`
	}
	query += ` ORDER BY active DESC, name ASC`

	rows, err := s.db.Query(query, householdID)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

// Update edits a catalog item in place. Open redemptions are unaffected:
// their points_spent snapshot was taken at request time.
func (s *RewardStore) Update(id int64, in RewardInput) (*model.Reward, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	existing, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	var active int
	if in.Active {
		active = 1
	}
	var maxPerWeek sql.NullInt64
	if in.MaxRedemptionsPerWeek != nil {
		maxPerWeek = sql.NullInt64{Int64: int64(*in.MaxRedemptionsPerWeek), Valid: true}
	}

	_, err = s.db.Exec(
		`UPDATE rewards SET name = ?, description = ?, cost_points = ?, category = ?, emoji = ?,
		 max_redemptions_per_week = ?, active = ?, updated_at = ? WHERE id = ?`,
		in.Name, in.Description, in.CostPoints, string(in.Category), in.Emoji,
		maxPerWeek, active, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a catalog item. Any still-open redemption of it is denied
// with reason "reward removed" and refunded in the same transaction, so the
// ledger and the redemption rows can never disagree about the outcome.
func (s *RewardStore) Delete(id int64) error {
	existing, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete reward: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT `+redemptionCols+` FROM reward_redemptions WHERE reward_id = ? AND status IN (?, ?)`,
		id, string(model.RedemptionPending), string(model.RedemptionApproved),
	)
	if err != nil {
		return fmt.Errorf("list open redemptions: %w", err)
	}
	var open []model.RewardRedemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("scan redemption: %w", err)
		}
		open = append(open, *r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate redemptions: %w", err)
	}
	rows.Close()

	for i := range open {
		if err := denyRedemption(tx, &open[i], nil, "reward removed"); err != nil {
			return fmt.Errorf("cancel redemption %d: %w", open[i].ID, err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM rewards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete reward: %w", err)
	}
	return nil
}
