package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/omnissiah/internal/armoury"
	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
)

// ErrDuplicateWeaponID is returned when an insert collides with an existing record id.
var ErrDuplicateWeaponID = errors.New("weapon record id already exists")

const weaponColumns = `id::text, owner, weapon_id, name, availability, class, type, range_m,
	rof_single, rof_semi, rof_auto, damage_dice, damage_bonus, damage_type,
	pen, clip, reload_time, mass, specials, craftsmanship, created_at`

// WeaponRepository persists player weapons in the player_weapons table.
// It implements armoury.Store.
type WeaponRepository struct {
	db *pgxpool.Pool
}

// NewWeaponRepository creates a WeaponRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewWeaponRepository(db *pgxpool.Pool) *WeaponRepository {
	return &WeaponRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (armoury.Record, error) {
	var (
		rec                                          armoury.Record
		id, availability, class, typ, dmgType, craft string
	)
	w := &rec.Weapon.Weapon
	err := row.Scan(
		&id, &rec.Owner, &w.ID, &w.Name, &availability, &class, &typ, &w.Range,
		&w.RoF.Single, &w.RoF.Semi, &w.RoF.Auto, &w.DamageDice, &w.DamageBonus, &dmgType,
		&w.Pen, &w.Clip, &w.ReloadTime, &w.Mass, &w.Specials, &craft, &rec.CreatedAt,
	)
	if err != nil {
		return armoury.Record{}, err
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return armoury.Record{}, fmt.Errorf("parsing record id %q: %w", id, err)
	}
	w.Availability = weapon.Availability(availability)
	w.Class = weapon.Class(class)
	w.Type = weapon.Type(typ)
	w.DamageType = weapon.DamageType(dmgType)
	rec.Weapon.Craftsmanship = weapon.Craftsmanship(craft)
	if len(w.Specials) == 0 {
		w.Specials = nil
	}
	return rec, nil
}

// List returns the owner's weapons ordered by created_at.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *WeaponRepository) List(ctx context.Context, owner string) ([]armoury.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+weaponColumns+` FROM player_weapons WHERE owner = $1 ORDER BY created_at ASC, id ASC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("listing weapons: %w", err)
	}
	defer rows.Close()

	recs := make([]armoury.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning weapon row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Add inserts w for owner and returns the new record id.
//
// Precondition: w must be valid.
// Postcondition: Returns the id, or ErrDuplicateWeaponID on an id collision.
func (r *WeaponRepository) Add(ctx context.Context, owner string, w weapon.Instance) (uuid.UUID, error) {
	id := uuid.New()
	specials := w.Specials
	if specials == nil {
		specials = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO player_weapons
			(id, owner, weapon_id, name, availability, class, type, range_m,
			 rof_single, rof_semi, rof_auto, damage_dice, damage_bonus, damage_type,
			 pen, clip, reload_time, mass, specials, craftsmanship)
		VALUES ($1::uuid,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		id.String(), owner, w.ID, w.Name, string(w.Availability), string(w.Class), string(w.Type), w.Range,
		w.RoF.Single, w.RoF.Semi, w.RoF.Auto, w.DamageDice, w.DamageBonus, string(w.DamageType),
		w.Pen, w.Clip, w.ReloadTime, w.Mass, specials, string(w.Craftsmanship),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return uuid.Nil, ErrDuplicateWeaponID
		}
		return uuid.Nil, fmt.Errorf("inserting weapon: %w", err)
	}
	return id, nil
}

// Get retrieves one of the owner's weapons.
//
// Postcondition: Returns the record or armoury.ErrNotFound.
func (r *WeaponRepository) Get(ctx context.Context, owner string, id uuid.UUID) (armoury.Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx,
		`SELECT `+weaponColumns+` FROM player_weapons WHERE owner = $1 AND id = $2::uuid`,
		owner, id.String(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return armoury.Record{}, armoury.ErrNotFound
		}
		return armoury.Record{}, fmt.Errorf("querying weapon: %w", err)
	}
	return rec, nil
}

// Delete removes one of the owner's weapons and reports whether a row was deleted.
func (r *WeaponRepository) Delete(ctx context.Context, owner string, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM player_weapons WHERE owner = $1 AND id = $2::uuid`,
		owner, id.String(),
	)
	if err != nil {
		return false, fmt.Errorf("deleting weapon: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
