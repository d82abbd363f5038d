package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/wellbeing/internal/client/models"
	"github.com/dmitrijs2005/wellbeing/internal/common"
	"github.com/dmitrijs2005/wellbeing/internal/dbx"
	"github.com/dmitrijs2005/wellbeing/internal/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// SQLSTATE insufficient_privilege; also raised by row-level security and the
// profiles_guard trigger.
const pgInsufficientPrivilege = "42501"

var writableColumns = map[string]bool{
	models.FieldUsername:    true,
	models.FieldGender:      true,
	models.FieldDateOfBirth: true,
	models.FieldAvatarURL:   true,
}

type PostgresStore struct {
	db dbx.DBTX
}

func NewPostgresStore(db dbx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open prepares a pgx-backed pool. No connection is made until the first
// query, so an unreachable store shows up as a transient fetch error rather
// than a startup failure.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Ping checks connectivity, mapping failures like every other query.
func Ping(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded profiles schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, migrations.RemoteDir)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.ProfileRecord, error) {
	query :=
		`SELECT id, email, role, username, gender, date_of_birth, avatar_url FROM profiles
		 WHERE id = $1
		 `

	var (
		p      models.ProfileRecord
		role   string
		gender sql.NullString
		dob    sql.NullTime
		avatar sql.NullString
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Email, &role, &p.Username, &gender, &dob, &avatar)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, mapError(err)
	}

	p.Role = models.Role(role)
	if gender.Valid {
		p.Gender = models.Gender(gender.String)
	}
	if dob.Valid {
		d := models.DateOf(dob.Time)
		p.DateOfBirth = &d
	}
	if avatar.Valid {
		p.AvatarURL = &avatar.String
	}

	return &p, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, patch models.ProfilePatch) error {
	if len(patch) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(patch))
	args := []any{id}

	for _, field := range patch.Fields() {
		if !writableColumns[field] {
			return fmt.Errorf("%w: %s", common.ErrUnknownField, field)
		}
		v, err := columnValue(field, patch[field])
		if err != nil {
			return err
		}
		args = append(args, v)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, len(args)))
	}

	query := fmt.Sprintf(
		`UPDATE profiles SET %s
		 WHERE id = $1
		 `, strings.Join(setClauses, ", "))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	return dbx.RequireAffected(res)
}

func columnValue(field string, v any) (any, error) {
	switch value := v.(type) {
	case string:
		if field == models.FieldAvatarURL && value == "" {
			return nil, nil
		}
		return value, nil
	case models.Gender:
		return string(value), nil
	case time.Time:
		return models.DateOf(value), nil
	default:
		return nil, fmt.Errorf("%w: unsupported value %T for %s", common.ErrorValidation, v, field)
	}
}

// mapError sorts driver errors into the repository taxonomy.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInsufficientPrivilege {
		return fmt.Errorf("%w: %s", common.ErrorPermission, pgErr.Message)
	}
	return fmt.Errorf("db error: %w: %w", common.ErrorTransient, err)
}
