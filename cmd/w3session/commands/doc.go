// Package commands defines the w3session CLI.
//
// Commands
//
//   - login     Log in through the hosted flow and persist the session
//   - status    Resume the persisted session and print the user
//   - mfa       Enable MFA for the logged in user
//   - wallet    Open the wallet UI for the session
//   - request   Ask the wallet to run a JSON-RPC method
//   - logout    End the session remotely and locally
//
// # Implementation
//
// The root command loads the configuration (file, W3S_* environment, flags)
// and builds the dependency graph before any subcommand runs. Hand-off
// commands print the URL to open, wait on the configured redirect channel
// for at most redirect.wait, and report the outcome. In deeplink mode the
// callback URL is read from standard input.
package commands
