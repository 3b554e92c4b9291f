package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/brooklane/housecare/internal/domain/entity"
	"go.uber.org/zap"
)

// UserRepository handles user database operations
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepository) Create(tx *sql.Tx, user *entity.User) error {
	roles, err := json.Marshal(user.Roles)
	if err != nil {
		return fmt.Errorf("failed to marshal roles: %w", err)
	}

	query := `
		INSERT INTO users (
			email, password_hash, roles, first_name, last_name, phone, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var result sql.Result
	if tx != nil {
		result, err = tx.Exec(query,
			user.Email, user.PasswordHash, string(roles),
			user.FirstName, user.LastName, user.Phone, user.IsActive)
	} else {
		result, err = r.db.Exec(query,
			user.Email, user.PasswordHash, string(roles),
			user.FirstName, user.LastName, user.Phone, user.IsActive)
	}

	if err != nil {
		r.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = id
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id int64) (*entity.User, error) {
	query := userSelect + " WHERE id = ?"
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(email string) (*entity.User, error) {
	query := userSelect + " WHERE email = ?"
	return r.scanOne(r.db.QueryRow(query, email))
}

// List retrieves all users ordered by id
func (r *UserRepository) List() ([]*entity.User, error) {
	rows, err := r.db.Query(userSelect + " ORDER BY id ASC")
	if err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Update updates a user's mutable fields
func (r *UserRepository) Update(tx *sql.Tx, user *entity.User) error {
	roles, err := json.Marshal(user.Roles)
	if err != nil {
		return fmt.Errorf("failed to marshal roles: %w", err)
	}

	query := `
		UPDATE users
		SET email = ?, roles = ?, first_name = ?, last_name = ?,
			phone = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if tx != nil {
		_, err = tx.Exec(query, user.Email, string(roles), user.FirstName,
			user.LastName, user.Phone, user.IsActive, user.ID)
	} else {
		_, err = r.db.Exec(query, user.Email, string(roles), user.FirstName,
			user.LastName, user.Phone, user.IsActive, user.ID)
	}

	if err != nil {
		r.logger.Error("Failed to update user", zap.Int64("id", user.ID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Count returns the number of users
func (r *UserRepository) Count() (int64, error) {
	var count int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

const userSelect = `
	SELECT id, email, password_hash, roles, first_name, last_name,
		phone, is_active, created_at, updated_at
	FROM users
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *UserRepository) scanOne(row rowScanner) (*entity.User, error) {
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func scanUser(row rowScanner) (*entity.User, error) {
	var user entity.User
	var roles string
	var phone sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&roles,
		&user.FirstName,
		&user.LastName,
		&phone,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(roles), &user.Roles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roles: %w", err)
	}
	if phone.Valid {
		user.Phone = phone.String
	}
	return &user, nil
}
