package ports

// Checksummer computes the keyed integrity digest of cache entries.
//
//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Checksummer interface {
	// Digest returns a deterministic digest of text perturbed by salt.
	Digest(text, salt string) string
}
