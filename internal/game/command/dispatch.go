package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
	"github.com/cory-johannsen/omnissiah/internal/gameserver"
	"github.com/cory-johannsen/omnissiah/internal/render"
)

// ErrUsage is wrapped by argument errors the user can fix by retyping.
var ErrUsage = errors.New("usage")

// AboutText is the reply to the about command.
const AboutText = "Omnissiah: Rogue Trader attack resolution. Type help for commands.\n"

// Reply is the outcome of one chat line.
type Reply struct {
	// Text is shown to the user; it may be empty.
	Text string
	// Quit asks the front end to close the session.
	Quit bool
}

// Dispatcher turns chat lines into combat service calls.
type Dispatcher struct {
	registry *Registry
	svc      *gameserver.CombatService
	style    render.Style
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher.
//
// Precondition: registry, svc and logger must be non-nil.
func NewDispatcher(registry *Registry, svc *gameserver.CombatService, style render.Style, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, svc: svc, style: style, logger: logger}
}

// Handle runs line on behalf of user.
//
// Postcondition: input mistakes are reported in Reply.Text with a nil error;
// the error is non-nil only for failures the user cannot correct.
func (d *Dispatcher) Handle(ctx context.Context, user, line string) (Reply, error) {
	parsed := Parse(line)
	if parsed.Command == "" {
		return Reply{}, nil
	}
	cmd, ok := d.registry.Resolve(parsed.Command)
	if !ok {
		return Reply{Text: fmt.Sprintf("Unknown command %q. Type help for a list.\n", parsed.Command)}, nil
	}

	var (
		text string
		err  error
	)
	switch cmd.Handler {
	case HandlerHelp:
		text, err = d.help(parsed.Args)
	case HandlerAbout:
		text = AboutText
	case HandlerQuit:
		return Reply{Text: "The Omnissiah watches over you.\n", Quit: true}, nil
	case HandlerActions:
		text = render.Actions(d.svc.Actions())
	case HandlerWeapons:
		text, err = d.weapons(ctx, user, parsed.Args)
	case HandlerAddWeapon:
		text, err = d.addWeapon(ctx, user, parsed.Args)
	case HandlerDelWeapon:
		text, err = d.delWeapon(ctx, user, parsed.Args)
	case HandlerAttack:
		text, err = d.attack(ctx, user, parsed.Args)
	case HandlerRoll:
		text, err = d.roll(user, parsed.RawArgs)
	default:
		err = fmt.Errorf("command %q has no handler %q", cmd.Name, cmd.Handler)
	}
	if err != nil {
		if errors.Is(err, ErrUsage) || gameserver.IsInvalidInput(err) || gameserver.IsNotFound(err) {
			return Reply{Text: fmt.Sprintf("%s: %v\n", cmd.Name, err)}, nil
		}
		d.logger.Error("command failed",
			zap.String("user", user),
			zap.String("command", cmd.Name),
			zap.Error(err),
		)
		return Reply{}, fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return Reply{Text: text}, nil
}

func (d *Dispatcher) help(args []string) (string, error) {
	if len(args) > 0 {
		cmd, ok := d.registry.Resolve(args[0])
		if !ok {
			return "", fmt.Errorf("%w: no command %q", ErrUsage, args[0])
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s\n  %s\n", cmd.Name, cmd.Usage, cmd.Help)
		if len(cmd.Aliases) > 0 {
			fmt.Fprintf(&b, "  aliases: %s\n", strings.Join(cmd.Aliases, ", "))
		}
		return b.String(), nil
	}

	var b strings.Builder
	byCat := d.registry.CommandsByCategory()
	for _, cat := range Categories() {
		cmds := byCat[cat]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&b, "[%s]\n", cat)
		for _, c := range cmds {
			fmt.Fprintf(&b, "  %-10s %s\n", c.Name, c.Help)
		}
	}
	return b.String(), nil
}

func (d *Dispatcher) weapons(ctx context.Context, user string, args []string) (string, error) {
	if len(args) > 0 && strings.EqualFold(args[0], "presets") {
		var b strings.Builder
		for _, w := range d.svc.Presets().All() {
			fmt.Fprintf(&b, "%-16s %s\n", w.ID, w.String())
		}
		return b.String(), nil
	}
	recs, err := d.svc.Armoury().List(ctx, user)
	if err != nil {
		return "", err
	}
	return render.Armoury(recs), nil
}

// addWeapon accepts "<preset> [craftsmanship]"; an unquoted multi-word
// preset name is joined back together.
func (d *Dispatcher) addWeapon(ctx context.Context, user string, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: addweapon <preset> [craftsmanship]", ErrUsage)
	}
	craft := weapon.CraftsmanshipCommon
	if len(args) > 1 {
		if c, err := weapon.ParseCraftsmanship(args[len(args)-1]); err == nil {
			craft = c
			args = args[:len(args)-1]
		}
	}
	ref := strings.Join(args, " ")
	w, ok := d.svc.Presets().Lookup(ref)
	if !ok {
		return "", fmt.Errorf("%w: no preset %q", gameserver.ErrWeaponNotFound, ref)
	}
	id, err := d.svc.Armoury().Add(ctx, user, weapon.NewInstance(w, craft))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %s [%s] as %s\n", w.Name, craft, id), nil
}

func (d *Dispatcher) delWeapon(ctx context.Context, user string, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: delweapon <id|name>", ErrUsage)
	}
	rec, err := d.svc.Armoury().Find(ctx, user, strings.Join(args, " "))
	if err != nil {
		return "", err
	}
	ok, err := d.svc.Armoury().Delete(ctx, user, rec.ID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "Nothing removed.\n", nil
	}
	return fmt.Sprintf("Removed %s (%s)\n", rec.Weapon.Name, rec.ID), nil
}

// attack accepts "<weapon> <characteristic> [range=N] [bonus=N] [actions]".
// Actions are the remaining words, separated by commas.
func (d *Dispatcher) attack(ctx context.Context, user string, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("%w: attack <weapon> <characteristic> [range=N] [bonus=N] [action, action]", ErrUsage)
	}
	value, err := strconv.Atoi(args[1])
	if err != nil {
		return "", fmt.Errorf("%w: characteristic %q is not a number", ErrUsage, args[1])
	}
	req := gameserver.AttackRequest{
		Owner:          user,
		Actor:          user,
		WeaponRef:      args[0],
		Characteristic: value,
		Publish:        true,
	}

	var words []string
	for _, a := range args[2:] {
		key, val, isOpt := strings.Cut(a, "=")
		if !isOpt {
			words = append(words, a)
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return "", fmt.Errorf("%w: %s must be a number", ErrUsage, key)
		}
		switch strings.ToLower(key) {
		case "range":
			req.TargetRange = n
		case "bonus":
			req.CharacteristicBonus = &n
		default:
			return "", fmt.Errorf("%w: unknown option %q", ErrUsage, key)
		}
	}
	req.Actions = SplitActions(strings.Join(words, " "))

	result, err := d.svc.Attack(ctx, req)
	if err != nil {
		return "", err
	}
	return render.Attack(user, result, d.style), nil
}

func (d *Dispatcher) roll(user, expr string) (string, error) {
	if strings.TrimSpace(expr) == "" {
		return "", fmt.Errorf("%w: roll <dice expression>", ErrUsage)
	}
	res, err := d.svc.Roll(user, expr, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return res.String() + "\n", nil
}

// SplitActions splits a comma separated action list, dropping blanks.
func SplitActions(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
