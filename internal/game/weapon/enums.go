package weapon

import (
	"fmt"
	"strings"
)

// Class is the broad handling category of a weapon.
type Class string

const (
	ClassMelee  Class = "Melee"
	ClassPistol Class = "Pistol"
	ClassBasic  Class = "Basic"
	ClassHeavy  Class = "Heavy"
	ClassThrown Class = "Thrown"
)

// Classes lists every Class in display order.
var Classes = []Class{ClassMelee, ClassPistol, ClassBasic, ClassHeavy, ClassThrown}

// Type is the technology family of a weapon.
type Type string

const (
	TypeLas             Type = "Las"
	TypeSolidProjectile Type = "Solid Projectile"
	TypeBolt            Type = "Bolt"
	TypeMelta           Type = "Melta"
	TypePlasma          Type = "Plasma"
	TypeFlame           Type = "Flame"
	TypeLauncher        Type = "Launcher"
	TypeExotic          Type = "Exotic"
	TypePrimitive       Type = "Primitive"
	TypeChain           Type = "Chain"
	TypePower           Type = "Power"
	TypeShock           Type = "Shock"
	TypeForce           Type = "Force"
)

// Types lists every Type in display order.
var Types = []Type{
	TypeLas, TypeSolidProjectile, TypeBolt, TypeMelta, TypePlasma, TypeFlame,
	TypeLauncher, TypeExotic, TypePrimitive, TypeChain, TypePower, TypeShock, TypeForce,
}

// DamageType classifies the damage a weapon deals.
type DamageType string

const (
	DamageEnergy    DamageType = "Energy"
	DamageImpact    DamageType = "Impact"
	DamageRending   DamageType = "Rending"
	DamageExplosive DamageType = "Explosive"
)

// DamageTypes lists every DamageType in display order.
var DamageTypes = []DamageType{DamageEnergy, DamageImpact, DamageRending, DamageExplosive}

// Availability is how hard an item is to acquire.
type Availability string

const (
	AvailabilityUbiquitous    Availability = "Ubiquitous"
	AvailabilityAbundant      Availability = "Abundant"
	AvailabilityPlentiful     Availability = "Plentiful"
	AvailabilityCommon        Availability = "Common"
	AvailabilityAverage       Availability = "Average"
	AvailabilityScarce        Availability = "Scarce"
	AvailabilityRare          Availability = "Rare"
	AvailabilityVeryRare      Availability = "Very Rare"
	AvailabilityExtremelyRare Availability = "Extremely Rare"
	AvailabilityNearUnique    Availability = "Near Unique"
	AvailabilityUnique        Availability = "Unique"
)

// Availabilities lists every Availability from most to least common.
var Availabilities = []Availability{
	AvailabilityUbiquitous, AvailabilityAbundant, AvailabilityPlentiful, AvailabilityCommon,
	AvailabilityAverage, AvailabilityScarce, AvailabilityRare, AvailabilityVeryRare,
	AvailabilityExtremelyRare, AvailabilityNearUnique, AvailabilityUnique,
}

// Craftsmanship is the quality tier of a weapon instance.
type Craftsmanship string

const (
	CraftsmanshipPoor   Craftsmanship = "Poor"
	CraftsmanshipCommon Craftsmanship = "Common"
	CraftsmanshipGood   Craftsmanship = "Good"
	CraftsmanshipBest   Craftsmanship = "Best"
)

// Craftsmanships lists every Craftsmanship from worst to best.
var Craftsmanships = []Craftsmanship{CraftsmanshipPoor, CraftsmanshipCommon, CraftsmanshipGood, CraftsmanshipBest}

// Characteristic is a character attribute that can be tested.
type Characteristic string

const (
	WeaponSkill    Characteristic = "Weapon Skill"
	BallisticSkill Characteristic = "Ballistic Skill"
	Strength       Characteristic = "Strength"
	Toughness      Characteristic = "Toughness"
	Agility        Characteristic = "Agility"
	Intelligence   Characteristic = "Intelligence"
	Perception     Characteristic = "Perception"
	Willpower      Characteristic = "Willpower"
	Fellowship     Characteristic = "Fellowship"
)

// Characteristics lists every Characteristic in character-sheet order.
var Characteristics = []Characteristic{
	WeaponSkill, BallisticSkill, Strength, Toughness, Agility,
	Intelligence, Perception, Willpower, Fellowship,
}

// normalize folds case and treats '-' and '_' as spaces so that
// "solid-projectile" and "Solid Projectile" name the same value.
func normalize(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func parseEnum[T ~string](kind, s string, all []T) (T, error) {
	want := normalize(s)
	for _, v := range all {
		if normalize(string(v)) == want {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, s)
}

func contains[T comparable](all []T, v T) bool {
	for _, a := range all {
		if a == v {
			return true
		}
	}
	return false
}

// ParseClass resolves a Class by case-insensitive name.
func ParseClass(s string) (Class, error) { return parseEnum("weapon class", s, Classes) }

// ParseType resolves a Type by case-insensitive name.
func ParseType(s string) (Type, error) { return parseEnum("weapon type", s, Types) }

// ParseDamageType resolves a DamageType by case-insensitive name.
func ParseDamageType(s string) (DamageType, error) {
	return parseEnum("damage type", s, DamageTypes)
}

// ParseAvailability resolves an Availability by case-insensitive name.
func ParseAvailability(s string) (Availability, error) {
	return parseEnum("availability", s, Availabilities)
}

// ParseCraftsmanship resolves a Craftsmanship by case-insensitive name.
func ParseCraftsmanship(s string) (Craftsmanship, error) {
	return parseEnum("craftsmanship", s, Craftsmanships)
}

// ParseCharacteristic resolves a Characteristic by name or by its common
// abbreviation (WS, BS, S, T, Ag, Int, Per, WP, Fel).
func ParseCharacteristic(s string) (Characteristic, error) {
	switch normalize(s) {
	case "ws":
		return WeaponSkill, nil
	case "bs":
		return BallisticSkill, nil
	case "s":
		return Strength, nil
	case "t":
		return Toughness, nil
	case "ag":
		return Agility, nil
	case "int":
		return Intelligence, nil
	case "per":
		return Perception, nil
	case "wp":
		return Willpower, nil
	case "fel":
		return Fellowship, nil
	}
	return parseEnum("characteristic", s, Characteristics)
}
