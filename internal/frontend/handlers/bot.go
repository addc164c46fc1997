// Package handlers provides the Telnet chat session that fronts the combat
// commands.
package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/omnissiah/internal/frontend/telnet"
	"github.com/cory-johannsen/omnissiah/internal/game/command"
)

// maxNameAttempts bounds the name prompt before the session is dropped.
const maxNameAttempts = 3

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{2,32}$`)

const welcomeBanner = "\r\n" + telnet.Bold + telnet.BrightCyan +
	"  +++ OMNISSIAH +++" + telnet.Reset + "\r\n" +
	telnet.BrightYellow + "  Rogue Trader attack resolution" + telnet.Reset + "\r\n\r\n" +
	"  Your name is your armoury key. Type " + telnet.Green + "help" + telnet.Reset +
	" once inside, " + telnet.Green + "quit" + telnet.Reset + " to leave.\r\n\r\n"

// Dispatcher runs one chat line for a user.
type Dispatcher interface {
	Handle(ctx context.Context, user, line string) (command.Reply, error)
}

// BotHandler implements telnet.SessionHandler: it asks for a name and then
// feeds every line to the command dispatcher.
type BotHandler struct {
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewBotHandler creates a BotHandler.
//
// Precondition: dispatcher and logger must be non-nil.
func NewBotHandler(dispatcher Dispatcher, logger *zap.Logger) *BotHandler {
	return &BotHandler{dispatcher: dispatcher, logger: logger}
}

// HandleSession implements telnet.SessionHandler.
//
// Postcondition: Returns nil on quit, or an error if the session ended abnormally.
func (h *BotHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	start := time.Now()
	addr := conn.RemoteAddr().String()

	if err := conn.Write([]byte(welcomeBanner)); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}

	user, err := h.askName(conn)
	if err != nil {
		return err
	}
	if user == "" {
		return nil
	}
	h.logger.Info("user joined",
		zap.String("remote_addr", addr),
		zap.String("user", user),
	)
	_ = conn.WriteLine(telnet.Colorf(telnet.BrightGreen, "Ave, %s.", user))

	prompt := telnet.Colorize(telnet.BrightWhite, user+"> ")
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Server shutting down."))
			return ctx.Err()
		default:
		}

		if err := conn.WritePrompt(prompt); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		reply, err := h.dispatcher.Handle(ctx, user, line)
		if err != nil {
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "An internal error occurred. Please try again."))
			continue
		}
		if err := conn.WriteText(reply.Text); err != nil {
			return fmt.Errorf("writing reply: %w", err)
		}
		if reply.Quit {
			h.logger.Info("user quit",
				zap.String("remote_addr", addr),
				zap.String("user", user),
				zap.Duration("session_duration", time.Since(start)),
			)
			return nil
		}
	}
}

// askName reads the user's name. An empty name with a nil error means the
// user quit or ran out of attempts.
func (h *BotHandler) askName(conn *telnet.Conn) (string, error) {
	for range maxNameAttempts {
		if err := conn.WritePrompt("Name: "); err != nil {
			return "", fmt.Errorf("writing prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			return "", fmt.Errorf("reading name: %w", err)
		}
		name := strings.TrimSpace(line)
		switch {
		case strings.EqualFold(name, "quit"):
			_ = conn.WriteLine(telnet.Colorize(telnet.Cyan, "Goodbye!"))
			return "", nil
		case ValidName(name):
			return name, nil
		}
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Names are 2-32 letters, digits, '-' or '_'."))
	}
	_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Too many attempts."))
	return "", nil
}

// ValidName reports whether name can key an armoury.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}
