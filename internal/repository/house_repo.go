package repository

import (
	"database/sql"
	"fmt"

	"github.com/brooklane/housecare/internal/domain/entity"
	"go.uber.org/zap"
)

// HouseRepository handles house database operations
type HouseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHouseRepository creates a new house repository
func NewHouseRepository(db *sql.DB, logger *zap.Logger) *HouseRepository {
	return &HouseRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new house
func (r *HouseRepository) Create(tx *sql.Tx, house *entity.House) error {
	query := `
		INSERT INTO houses (
			name, address, city, postal_code, country, description,
			bedrooms, bathrooms, square_meters, owner_id, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var result sql.Result
	var err error

	args := []interface{}{
		house.Name, house.Address, house.City, house.PostalCode,
		house.Country, house.Description, house.Bedrooms, house.Bathrooms,
		house.SquareMeters, house.OwnerID, house.IsActive,
	}

	if tx != nil {
		result, err = tx.Exec(query, args...)
	} else {
		result, err = r.db.Exec(query, args...)
	}

	if err != nil {
		r.logger.Error("Failed to create house", zap.String("name", house.Name), zap.Error(err))
		return fmt.Errorf("failed to create house: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	house.ID = id
	return nil
}

// GetByID retrieves a house by ID
func (r *HouseRepository) GetByID(id int64) (*entity.House, error) {
	house, err := scanHouse(r.db.QueryRow(houseSelect+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get house by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get house: %w", err)
	}
	return house, nil
}

// List retrieves all houses ordered by id
func (r *HouseRepository) List() ([]*entity.House, error) {
	return r.query(houseSelect + " ORDER BY id ASC")
}

// ListByOwner retrieves the houses belonging to an owner. This is the
// recomputed inverse of the owner foreign key.
func (r *HouseRepository) ListByOwner(ownerID int64) ([]*entity.House, error) {
	return r.query(houseSelect+" WHERE owner_id = ? ORDER BY id ASC", ownerID)
}

// Update updates a house
func (r *HouseRepository) Update(tx *sql.Tx, house *entity.House) error {
	query := `
		UPDATE houses
		SET name = ?, address = ?, city = ?, postal_code = ?, country = ?,
			description = ?, bedrooms = ?, bathrooms = ?, square_meters = ?,
			owner_id = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	args := []interface{}{
		house.Name, house.Address, house.City, house.PostalCode,
		house.Country, house.Description, house.Bedrooms, house.Bathrooms,
		house.SquareMeters, house.OwnerID, house.IsActive, house.ID,
	}

	var err error
	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}

	if err != nil {
		r.logger.Error("Failed to update house", zap.Int64("id", house.ID), zap.Error(err))
		return fmt.Errorf("failed to update house: %w", err)
	}
	return nil
}

// Delete deletes a house
func (r *HouseRepository) Delete(tx *sql.Tx, id int64) error {
	var err error
	if tx != nil {
		_, err = tx.Exec("DELETE FROM houses WHERE id = ?", id)
	} else {
		_, err = r.db.Exec("DELETE FROM houses WHERE id = ?", id)
	}
	if err != nil {
		r.logger.Error("Failed to delete house", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete house: %w", err)
	}
	return nil
}

const houseSelect = `
	SELECT id, name, address, city, postal_code, country, description,
		bedrooms, bathrooms, square_meters, owner_id, is_active,
		created_at, updated_at
	FROM houses
`

func (r *HouseRepository) query(query string, args ...interface{}) ([]*entity.House, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to query houses", zap.Error(err))
		return nil, fmt.Errorf("failed to query houses: %w", err)
	}
	defer rows.Close()

	var houses []*entity.House
	for rows.Next() {
		house, err := scanHouse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan house: %w", err)
		}
		houses = append(houses, house)
	}
	return houses, rows.Err()
}

func scanHouse(row rowScanner) (*entity.House, error) {
	var house entity.House
	var description sql.NullString

	err := row.Scan(
		&house.ID,
		&house.Name,
		&house.Address,
		&house.City,
		&house.PostalCode,
		&house.Country,
		&description,
		&house.Bedrooms,
		&house.Bathrooms,
		&house.SquareMeters,
		&house.OwnerID,
		&house.IsActive,
		&house.CreatedAt,
		&house.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		house.Description = description.String
	}
	return &house, nil
}
