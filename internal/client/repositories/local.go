// Package repositories opens the on-device SQLite database and hands out the
// repositories that live in it.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/wellbeing/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/wellbeing/internal/dbx"
	"github.com/dmitrijs2005/wellbeing/internal/filex"
	"github.com/dmitrijs2005/wellbeing/internal/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, migrations.LocalDir)
}

// InitDatabase opens (creating if needed) the SQLite file at path and
// migrates it. The caller owns Repositories.DB.
func InitDatabase(ctx context.Context, path string) (*Repositories, error) {
	if path != ":memory:" {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate local db: %w", err)
	}

	return &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
	}, nil
}

// SnapshotKey derives the key sealing the session snapshot. Salt lookup and
// creation share one transaction so two clients on the same file agree.
func (r *Repositories) SnapshotKey(ctx context.Context, passphrase string) ([]byte, error) {
	var key []byte
	err := dbx.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		k, err := metadata.DeriveKey(ctx, metadata.NewSQLiteRepository(tx), passphrase)
		if err != nil {
			return err
		}
		key = k
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot key: %w", err)
	}
	return key, nil
}
