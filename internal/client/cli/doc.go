// Package cli provides the interactive pup command-line client.
//
// It wires configuration, the local session store, the request client and
// the services, then runs a REPL. The session survives restarts: the
// cookies are saved after every command and restored on start.
//
// Commands:
//   - signup / login / logout / whoami
//   - browse [domain=.. archetype=.. modality=.. scores], next
//   - admire <id> / pass <id>
//   - matches, admirers
//   - profile, edit <field> [value], photo <path>
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
