// Package command provides the chat command registry, parser, and dispatcher.
package command

// Categories for organizing commands.
const (
	CategoryCombat  = "combat"
	CategoryArmoury = "armoury"
	CategoryDice    = "dice"
	CategorySystem  = "system"
)

// Handler identifiers mapping commands to dispatcher methods.
const (
	HandlerHelp      = "help"
	HandlerActions   = "actions"
	HandlerWeapons   = "weapons"
	HandlerAddWeapon = "addweapon"
	HandlerDelWeapon = "delweapon"
	HandlerAttack    = "attack"
	HandlerRoll      = "roll"
	HandlerAbout     = "about"
	HandlerQuit      = "quit"
)

// Command defines a user-invocable chat command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage is the argument synopsis shown by help.
	Usage string
	// Help is the short help text displayed to users.
	Help string
	// Category groups the command.
	Category string
	// Handler selects the dispatcher method.
	Handler string
}

// BuiltinCommands returns all built-in chat commands.
func BuiltinCommands() []Command {
	return []Command{
		{
			Name: "attack", Aliases: []string{"a", "shoot"},
			Usage:    "<weapon> <characteristic> [range=N] [bonus=N] [action, action]",
			Help:     "Resolve an attack with an armoury weapon or a preset",
			Category: CategoryCombat, Handler: HandlerAttack,
		},
		{
			Name: "actions", Aliases: []string{"act"},
			Help:     "List the attack actions",
			Category: CategoryCombat, Handler: HandlerActions,
		},
		{
			Name: "weapons", Aliases: []string{"armoury", "w"},
			Usage:    "[presets]",
			Help:     "List your armoury, or the preset weapons",
			Category: CategoryArmoury, Handler: HandlerWeapons,
		},
		{
			Name: "addweapon", Aliases: []string{"add"},
			Usage:    "<preset> [craftsmanship]",
			Help:     "Add a preset weapon to your armoury",
			Category: CategoryArmoury, Handler: HandlerAddWeapon,
		},
		{
			Name: "delweapon", Aliases: []string{"del", "rm"},
			Usage:    "<id|name>",
			Help:     "Remove a weapon from your armoury",
			Category: CategoryArmoury, Handler: HandlerDelWeapon,
		},
		{
			Name: "roll", Aliases: []string{"r"},
			Usage:    "<dice expression>",
			Help:     "Roll dice, e.g. roll 2d10+3",
			Category: CategoryDice, Handler: HandlerRoll,
		},
		{
			Name: "help", Aliases: []string{"?", "h"},
			Usage:    "[command]",
			Help:     "Show available commands",
			Category: CategorySystem, Handler: HandlerHelp,
		},
		{
			Name:     "about",
			Help:     "Describe this bot",
			Category: CategorySystem, Handler: HandlerAbout,
		},
		{
			Name: "quit", Aliases: []string{"exit", "q"},
			Help:     "Disconnect",
			Category: CategorySystem, Handler: HandlerQuit,
		},
	}
}
