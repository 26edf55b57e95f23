// Package redirect captures the callback URL that ends an external
// hand-off.
//
// Every adapter implements Channel: RedirectURL is sent to the remote flow,
// Await returns the first callback URL, and later deliveries are dropped.
//
//   - Loopback: local HTTP listener for desktop hosts
//   - DeepLink: URLs pushed by an OS URL-scheme handler
//   - Fragment: the page URL itself, for browser hosts
//   - NATS: a subject that a forwarding page publishes to
package redirect
