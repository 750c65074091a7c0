// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package sqlstore keeps a vault in a SQL database through Bun. Every record
// value is sealed on its own, bound to its client and key; the KDF salt and a
// password check blob live in the vault_meta table. Client names are kept in
// vault_clients so clients without records survive a reload.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/toeirei/chatlocked/internal/crypto/seal"
	"github.com/toeirei/chatlocked/internal/logging"
	"github.com/toeirei/chatlocked/internal/vault"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const (
	metaID    = 1
	checkText = "chatlocked vault"
	checkAAD  = "vault_meta"
)

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

// Options configure the database backing the vault.
type Options struct {
	// Type is "sqlite", "postgres" or "mysql".
	Type string
	// DSN is the connection string. For sqlite an empty DSN stores the
	// database next to the vault path as chatlocked.db.
	DSN string
	// KDF and Cipher apply to newly created vaults.
	KDF    seal.KDF
	Cipher seal.Cipher
}

type metaModel struct {
	bun.BaseModel `bun:"table:vault_meta"`
	ID            int    `bun:"id,pk"`
	KDF           int    `bun:"kdf,notnull"`
	Cipher        int    `bun:"cipher,notnull"`
	Salt          []byte `bun:"salt,notnull"`
	Check         []byte `bun:"check_blob,notnull"`
}

type clientModel struct {
	bun.BaseModel `bun:"table:vault_clients"`
	Name          string `bun:"name,pk,type:varchar(255)"`
}

type recordModel struct {
	bun.BaseModel `bun:"table:vault_records"`
	Client        string    `bun:"client,pk,type:varchar(255)"`
	Key           string    `bun:"record_key,pk,type:varchar(255)"`
	Value         []byte    `bun:"value,notnull"`
	ExpiresAt     time.Time `bun:"expires_at,nullzero"`
}

// Open returns a vault.BackendFactory for SQL vaults.
func Open(opts Options) vault.BackendFactory {
	if opts.Type == "" {
		opts.Type = "sqlite"
	}
	if opts.KDF == 0 {
		opts.KDF = seal.Argon2ID
	}
	if opts.Cipher == 0 {
		opts.Cipher = seal.XChaCha20Poly1305
	}
	return func(ctx context.Context, path string, password []byte) (vault.Backend, error) {
		dsn := opts.DSN
		if dsn == "" && opts.Type == "sqlite" {
			dsn = filepath.Join(filepath.Dir(path), "chatlocked.db")
		}
		db, err := newBunDB(opts.Type, dsn)
		if err != nil {
			return nil, err
		}
		b, err := open(ctx, db, password, opts)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return b, nil
	}
}

// newBunDB opens the database and wraps it with the dialect matching dbType.
func newBunDB(dbType, dsn string) (*bun.DB, error) {
	driverName := dbType
	// The pgx stdlib registers driver name "pgx"; map "postgres" to that driver.
	if dbType == "postgres" {
		driverName = "pgx"
	}
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s database: %w", dbType, err)
	}

	switch dbType {
	case "sqlite":
		// A single connection keeps ":memory:" databases consistent and
		// serialises writers on file databases.
		sqlDB.SetMaxOpenConns(1)
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case "postgres":
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	case "mysql":
		return bun.NewDB(sqlDB, mysqldialect.New()), nil
	default:
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: unsupported database type %q", dbType)
	}
}

type backend struct {
	db     *bun.DB
	sealer *seal.Sealer
	meta   *metaModel // nil until the first Persist of a new vault
}

func open(ctx context.Context, db *bun.DB, password []byte, opts Options) (*backend, error) {
	if err := createSchema(ctx, db); err != nil {
		return nil, err
	}

	var meta metaModel
	err := db.NewSelect().Model(&meta).Where("id = ?", metaID).Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		params, err := seal.NewParams(opts.KDF, opts.Cipher)
		if err != nil {
			return nil, err
		}
		sealer, err := seal.NewSealer(password, params)
		if err != nil {
			return nil, err
		}
		return &backend{db: db, sealer: sealer}, nil
	case err != nil:
		return nil, fmt.Errorf("sqlstore: read vault meta: %w", err)
	}

	sealer, err := seal.NewSealer(password, seal.Params{
		KDF:    seal.KDF(meta.KDF),
		Cipher: seal.Cipher(meta.Cipher),
		Salt:   meta.Salt,
	})
	if err != nil {
		return nil, err
	}
	if _, err := sealer.Open(meta.Check, []byte(checkAAD)); err != nil {
		sealer.Destroy()
		return nil, fmt.Errorf("sqlstore: unlock vault: %w", err)
	}
	return &backend{db: db, sealer: sealer, meta: &meta}, nil
}

func createSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{(*metaModel)(nil), (*clientModel)(nil), (*recordModel)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("sqlstore: create schema: %w", err)
		}
	}
	return nil
}

func recordAAD(client, key string) []byte {
	return []byte(client + "\x00" + key)
}

func (b *backend) Load(ctx context.Context) (*vault.Snapshot, error) {
	if b.meta == nil {
		return nil, vault.ErrNoVault
	}
	var clients []clientModel
	if err := b.db.NewSelect().Model(&clients).Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlstore: read clients: %w", err)
	}
	var rows []recordModel
	if err := b.db.NewSelect().Model(&rows).Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlstore: read records: %w", err)
	}

	snap := vault.NewSnapshot()
	for _, c := range clients {
		snap.Clients[c.Name] = map[string]vault.Record{}
	}
	for _, row := range rows {
		records, ok := snap.Clients[row.Client]
		if !ok {
			records = map[string]vault.Record{}
			snap.Clients[row.Client] = records
		}
		value, err := b.sealer.Open(row.Value, recordAAD(row.Client, row.Key))
		if err != nil {
			return nil, fmt.Errorf("sqlstore: open record %q: %w", row.Key, err)
		}
		records[row.Key] = vault.Record{Value: value, ExpiresAt: row.ExpiresAt}
	}
	return snap, nil
}

func (b *backend) Persist(ctx context.Context, snap *vault.Snapshot) error {
	meta := b.meta
	if meta == nil {
		check, err := b.sealer.Seal([]byte(checkText), []byte(checkAAD))
		if err != nil {
			return fmt.Errorf("sqlstore: seal check blob: %w", err)
		}
		p := b.sealer.Params()
		meta = &metaModel{ID: metaID, KDF: int(p.KDF), Cipher: int(p.Cipher), Salt: p.Salt, Check: check}
	}

	clients := make([]clientModel, 0, len(snap.Clients))
	var rows []recordModel
	for client, records := range snap.Clients {
		clients = append(clients, clientModel{Name: client})
		for key, r := range records {
			sealed, err := b.sealer.Seal(r.Value, recordAAD(client, key))
			if err != nil {
				return fmt.Errorf("sqlstore: seal record %q: %w", key, err)
			}
			rows = append(rows, recordModel{Client: client, Key: key, Value: sealed, ExpiresAt: r.ExpiresAt.UTC()})
		}
	}

	err := b.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*metaModel)(nil)).Where("id = ?", metaID).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(meta).Exec(ctx); err != nil {
			return err
		}
		// Bun requires a WHERE clause for deletes.
		if _, err := tx.NewDelete().Model((*clientModel)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*recordModel)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return err
		}
		if len(clients) > 0 {
			if _, err := tx.NewInsert().Model(&clients).Exec(ctx); err != nil {
				return err
			}
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("sqlstore: persist: %w", err)
	}
	b.meta = meta
	logging.Debugf("sqlstore: saved %d clients, %d records", len(clients), len(rows))
	return nil
}

func (b *backend) Close() error {
	b.sealer.Destroy()
	return b.db.Close()
}

// Dialects lists the supported database types.
func Dialects() []string {
	return []string{"sqlite", "postgres", "mysql"}
}

// IsDialect reports whether name is a supported database type.
func IsDialect(name string) bool {
	for _, d := range Dialects() {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}
