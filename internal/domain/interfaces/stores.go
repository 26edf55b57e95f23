package interfaces

// KeyValueStore persists small named strings locally: the current session
// id, the last redirect origin and per-verifier recovery shares.
type KeyValueStore interface {
	// Get returns the value and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
