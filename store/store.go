// Package store carries the durable key->bytes contract the Indicator uses
// to remember its last Commander across power loss. Only the read/write
// contract lives here; the backing mechanics are a platform concern.
package store

// KeyLastSender holds the 6-byte address of the last known Commander.
const KeyLastSender = "last_sender"

// Store is a durable key->bytes map surviving power loss.
type Store interface {
	// Get returns the stored value and whether the key is present.
	Get(key string) ([]byte, bool)
	// Put stores val under key, replacing any previous value.
	Put(key string, val []byte) error
}
