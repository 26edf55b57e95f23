// Package app wires application dependencies for the CLI.
//
// LoadConfig layers defaults, a YAML file and W3S_* environment variables
// into a Config. NewWire builds the local key store, the session store
// client, the handshake and the session service from it, and NewChannel
// opens the redirect channel for the configured mode.
package app
