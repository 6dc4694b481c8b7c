package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/MohammadAghaei1/Misinformation-detector/internal/models"
)

// ErrNoUser is returned when no user matches the lookup.
var ErrNoUser = errors.New("user not found")

type AuthRepository interface {
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	EmailExists(email string) (bool, error)
}

type authRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAuthRepository(db *sqlx.DB, logger *zap.Logger) AuthRepository {
	return &authRepository{db: db, logger: logger}
}

func (r *authRepository) CreateUser(user *models.User) error {
	if r.db.DriverName() == "postgres" {
		query := `INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id`
		return r.db.QueryRow(query, user.Email, user.PasswordHash).Scan(&user.ID)
	}

	result, err := r.db.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`,
		user.Email, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = id
	return nil
}

func (r *authRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	query := r.db.Rebind(`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`)
	err := r.db.Get(&user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *authRepository) EmailExists(email string) (bool, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM users WHERE email = ?`)
	if err := r.db.Get(&count, query, email); err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	return count > 0, nil
}
