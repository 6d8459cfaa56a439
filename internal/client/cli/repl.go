package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	afterCommand(ctx context.Context)

	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Browse(ctx context.Context, args []string) error
	Next(ctx context.Context) error
	Admire(ctx context.Context, targetUserID string) error
	Pass(ctx context.Context, targetUserID string) error
	Matches(ctx context.Context, admirers bool) error
	Profile(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Photo(ctx context.Context, path string) error
}

const (
	helpSignedOut = "Available commands: signup, login, exit"
	helpSignedIn  = "Available commands: browse, next, admire <id>, pass <id>, matches, admirers, profile, edit, photo <path>, whoami, logout, exit"
)

// runREPL reads one command per line and dispatches it to a. Commands that
// need a session are refused while signed out. Errors are reported by the
// handlers themselves, so the loop ignores them. It returns on EOF, on
// "exit" or "quit", or when ctx is done.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("pup %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "signup":
			_ = a.Signup(ctx)
			a.afterCommand(ctx)
			continue
		case "login":
			_ = a.Login(ctx)
			a.afterCommand(ctx)
			continue
		}

		if !a.isLoggedIn() {
			printlnFn("Please 'login' or 'signup' first.")
			continue
		}

		switch cmd {
		case "logout":
			_ = a.Logout(ctx)
		case "whoami":
			_ = a.Whoami(ctx)
		case "browse", "b":
			_ = a.Browse(ctx, args)
		case "next", "n":
			_ = a.Next(ctx)
		case "admire", "pass":
			if len(args) != 1 {
				printlnFn(fmt.Sprintf("Usage: %s <user id>", cmd))
				continue
			}
			if cmd == "admire" {
				_ = a.Admire(ctx, args[0])
			} else {
				_ = a.Pass(ctx, args[0])
			}
		case "matches":
			_ = a.Matches(ctx, false)
		case "admirers":
			_ = a.Matches(ctx, true)
		case "profile":
			_ = a.Profile(ctx)
		case "edit":
			_ = a.Edit(ctx, args)
		case "photo":
			if len(args) != 1 {
				printlnFn("Usage: photo <path>")
				continue
			}
			_ = a.Photo(ctx, args[0])
		default:
			printlnFn("Unknown command:", cmd)
			continue
		}
		a.afterCommand(ctx)
	}
}
