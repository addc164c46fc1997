// Package render formats combat results for chat, telnet and the dice feed.
package render

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/omnissiah/internal/armoury"
	"github.com/cory-johannsen/omnissiah/internal/frontend/telnet"
	"github.com/cory-johannsen/omnissiah/internal/game/combat"
)

// Style selects plain text or ANSI-coloured output.
type Style int

const (
	Plain Style = iota
	ANSI
)

func (s Style) color(code, text string) string {
	if s == ANSI {
		return telnet.Colorize(code, text)
	}
	return text
}

// Attack renders r as a multi-line report, e.g.
//
//	Inquisitor attacks with Lasgun [Standard Attack] at normal range
//	Test: 35 <= (40+10=50)  HIT with 1 DoS
//	Hits: 1 (Body)
//	  #1 (1d10 → [7]) + 3 = 10
//	Total damage: 10
func Attack(actor string, r combat.AttackResult, style Style) string {
	var b strings.Builder

	head := r.Weapon
	if actor != "" {
		head = fmt.Sprintf("%s attacks with %s", actor, r.Weapon)
	}
	b.WriteString(style.color(telnet.BrightYellow, head))
	if len(r.Actions) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(r.Actions, ", "))
	}
	if r.RangeBand != "" && r.RangeBand != combat.RangeNone.String() {
		fmt.Fprintf(&b, " at %s range", r.RangeBand)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Test: %s  ", r.TestBreakdown)
	if !r.Success {
		b.WriteString(style.color(telnet.Red, "MISS"))
		fmt.Fprintf(&b, " by %d DoF\n", r.DegreesOfSuccess)
		return b.String()
	}
	b.WriteString(style.color(telnet.BrightGreen, "HIT"))
	fmt.Fprintf(&b, " with %d DoS\n", r.DegreesOfSuccess)

	fmt.Fprintf(&b, "Hits: %d (%s)\n", r.Hits, strings.Join(r.Locations, ", "))
	for i, d := range r.Damage {
		fmt.Fprintf(&b, "  #%d %s = %d\n", i+1, d.String(), d.Total())
	}
	if r.DamageBonus != 0 {
		fmt.Fprintf(&b, "Bonus: %+d\n", r.DamageBonus)
	}
	b.WriteString(style.color(telnet.BrightWhite, fmt.Sprintf("Total damage: %d", r.TotalDamage)))
	b.WriteString("\n")
	return b.String()
}

// Summary renders r on one line for the dice feed.
func Summary(actor string, r combat.AttackResult) string {
	if !r.Success {
		return fmt.Sprintf("%s: %s missed (%s)", actor, r.Weapon, r.TestBreakdown)
	}
	return fmt.Sprintf("%s: %s hit %d time(s) for %d damage (%s)",
		actor, r.Weapon, r.Hits, r.TotalDamage, strings.Join(r.Locations, ", "))
}

// Actions renders the catalog one action per line.
func Actions(actions []combat.Action) string {
	var b strings.Builder
	for _, a := range actions {
		fmt.Fprintf(&b, "%-18s %-4s", a.Name, a.Cost)
		if a.Special != "" {
			fmt.Fprintf(&b, " %s", a.Special)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Armoury renders an owner's weapon records.
func Armoury(recs []armoury.Record) string {
	if len(recs) == 0 {
		return "Your armoury is empty.\n"
	}
	var b strings.Builder
	for _, r := range recs {
		fmt.Fprintf(&b, "%s  %s [%s]\n", r.ID.String()[:8], r.Weapon.String(), r.Weapon.Craftsmanship)
	}
	return b.String()
}
