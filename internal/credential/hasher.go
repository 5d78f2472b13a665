package credential

import "clubroster/pkg/secrets"

// Hasher is the credential hashing collaborator. The core never stores or
// logs plaintext passwords except as a one-time return value from member
// creation and password resets.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) error
}

// BcryptHasher hashes with bcrypt via pkg/secrets.
type BcryptHasher struct{}

func NewBcryptHasher() BcryptHasher { return BcryptHasher{} }

func (BcryptHasher) Hash(plaintext string) (string, error) {
	return secrets.Hash(plaintext)
}

func (BcryptHasher) Verify(plaintext, hash string) error {
	return secrets.Verify(plaintext, hash)
}
