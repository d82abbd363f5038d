// Package cli is the interactive front end of the wellbeing client.
//
// It wires configuration, the local session store, the hosted record and
// object stores, the auth hub and the session controller, then runs a REPL.
// A background goroutine prints every view change; commands print inline
// feedback from the error they get back.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
