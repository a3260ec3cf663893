package badger

// Key prefixes for different data types
const (
	sessionPrefix = "sess:"
)

// makeSessionKey generates the key for a cached session by file path.
func makeSessionKey(path string) []byte {
	return []byte(sessionPrefix + path)
}
