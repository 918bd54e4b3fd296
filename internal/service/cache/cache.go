package cache

import "time"

// BytesCache stores serialized API responses with a TTL. Keys are the request
// route plus its query parameters.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
