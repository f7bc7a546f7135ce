package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"syncauth/internal/auth/models"
	"syncauth/pkg/platform/sentinel"
)

const selectAccount = `SELECT uid, alias, hashed_key, is_banned, mark_for_ban, COALESCE(primary_uid, '') FROM accounts`

// PostgresStore reads and writes accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByCredentialHash(ctx context.Context, hashedKey string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, selectAccount+` WHERE hashed_key = $1`, hashedKey)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find account by credential hash: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) FindByUID(ctx context.Context, uid string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, selectAccount+` WHERE uid = $1`, uid)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find account by uid: %w", err)
	}
	return account, nil
}

// Save upserts an account by UID.
func (s *PostgresStore) Save(ctx context.Context, account *models.Account) error {
	if account == nil || account.UID == "" {
		return fmt.Errorf("account uid is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (uid, alias, hashed_key, is_banned, mark_for_ban, primary_uid)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		ON CONFLICT (uid) DO UPDATE SET
			alias = EXCLUDED.alias,
			hashed_key = EXCLUDED.hashed_key,
			is_banned = EXCLUDED.is_banned,
			mark_for_ban = EXCLUDED.mark_for_ban,
			primary_uid = EXCLUDED.primary_uid
	`, account.UID, account.Alias, account.HashedKey, account.IsBanned, account.MarkForBan, account.PrimaryUID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("hashed key already assigned: %w", err)
		}
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.UID, &a.Alias, &a.HashedKey, &a.IsBanned, &a.MarkForBan, &a.PrimaryUID); err != nil {
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
