// Package sqlite provides a file-backed armoury.Store on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/omnissiah/internal/armoury"
	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const weaponColumns = `id, owner, weapon_id, name, availability, class, type, range_m,
	rof_single, rof_semi, rof_auto, damage_dice, damage_bonus, damage_type,
	pen, clip, reload_time, mass, specials_json, craftsmanship, created_at`

// Store persists player weapons in a SQLite file. It implements armoury.Store.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
//
// Precondition: path must be non-empty.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite store: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrationFS, "migrations"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func scanRecord(row interface{ Scan(dest ...any) error }) (armoury.Record, error) {
	var (
		rec                                          armoury.Record
		id, availability, class, typ, dmgType, craft string
		specials                                     string
		created                                      int64
	)
	w := &rec.Weapon.Weapon
	if err := row.Scan(
		&id, &rec.Owner, &w.ID, &w.Name, &availability, &class, &typ, &w.Range,
		&w.RoF.Single, &w.RoF.Semi, &w.RoF.Auto, &w.DamageDice, &w.DamageBonus, &dmgType,
		&w.Pen, &w.Clip, &w.ReloadTime, &w.Mass, &specials, &craft, &created,
	); err != nil {
		return armoury.Record{}, err
	}
	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return armoury.Record{}, fmt.Errorf("parse record id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(specials), &w.Specials); err != nil {
		return armoury.Record{}, fmt.Errorf("decode specials: %w", err)
	}
	if len(w.Specials) == 0 {
		w.Specials = nil
	}
	w.Availability = weapon.Availability(availability)
	w.Class = weapon.Class(class)
	w.Type = weapon.Type(typ)
	w.DamageType = weapon.DamageType(dmgType)
	rec.Weapon.Craftsmanship = weapon.Craftsmanship(craft)
	rec.CreatedAt = time.UnixMilli(created).UTC()
	return rec, nil
}

// List returns the owner's weapons, oldest first.
func (s *Store) List(ctx context.Context, owner string) ([]armoury.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+weaponColumns+` FROM player_weapons WHERE owner = ? ORDER BY created_at ASC, rowid ASC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("list weapons: %w", err)
	}
	defer rows.Close()

	recs := make([]armoury.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan weapon row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Add inserts w for owner and returns the new record id.
func (s *Store) Add(ctx context.Context, owner string, w weapon.Instance) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	specials := w.Specials
	if specials == nil {
		specials = []string{}
	}
	specialsJSON, err := json.Marshal(specials)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode specials: %w", err)
	}
	id := uuid.New()
	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT INTO player_weapons (`+weaponColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id.String(), owner, w.ID, w.Name, string(w.Availability), string(w.Class), string(w.Type), w.Range,
		w.RoF.Single, w.RoF.Semi, w.RoF.Auto, w.DamageDice, w.DamageBonus, string(w.DamageType),
		w.Pen, w.Clip, w.ReloadTime, w.Mass, string(specialsJSON), string(w.Craftsmanship),
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert weapon: %w", err)
	}
	return id, nil
}

// Get returns one of the owner's weapons or armoury.ErrNotFound.
func (s *Store) Get(ctx context.Context, owner string, id uuid.UUID) (armoury.Record, error) {
	if err := ctx.Err(); err != nil {
		return armoury.Record{}, err
	}
	rec, err := scanRecord(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+weaponColumns+` FROM player_weapons WHERE owner = ? AND id = ?`,
		owner, id.String(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return armoury.Record{}, armoury.ErrNotFound
		}
		return armoury.Record{}, fmt.Errorf("get weapon: %w", err)
	}
	return rec, nil
}

// Delete removes one of the owner's weapons and reports whether it existed.
func (s *Store) Delete(ctx context.Context, owner string, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM player_weapons WHERE owner = ? AND id = ?`,
		owner, id.String(),
	)
	if err != nil {
		return false, fmt.Errorf("delete weapon: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete weapon: %w", err)
	}
	return n > 0, nil
}
