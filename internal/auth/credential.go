package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptPrefix marks a stored credential as a bcrypt hash ($2a$, $2b$, $2y$).
const bcryptPrefix = "$2"

// CredentialKind tells how a stored password is encoded.
type CredentialKind int

const (
	// Hashed credentials are bcrypt hashes.
	Hashed CredentialKind = iota
	// Plain credentials are legacy plaintext passwords awaiting upgrade.
	Plain
)

func (k CredentialKind) String() string {
	if k == Plain {
		return "plain"
	}
	return "hashed"
}

// Credential is a stored password resolved into its encoding.
type Credential struct {
	Kind  CredentialKind
	value string
}

// ParseCredential classifies a stored password by its prefix.
func ParseCredential(stored string) Credential {
	if strings.HasPrefix(stored, bcryptPrefix) {
		return Credential{Kind: Hashed, value: stored}
	}
	return Credential{Kind: Plain, value: stored}
}

// String returns the value to persist.
func (c Credential) String() string {
	return c.value
}

// NeedsUpgrade reports whether the credential must be rehashed after a
// successful verification.
func (c Credential) NeedsUpgrade() bool {
	return c.Kind == Plain
}

// MaxPasswordBytes is the longest input bcrypt reads. New passwords above it
// are rejected; longer legacy passwords are keyed on their first 72 bytes.
const MaxPasswordBytes = 72

// bcryptKey returns the part of plaintext bcrypt actually uses.
func bcryptKey(plaintext string) []byte {
	key := []byte(plaintext)
	if len(key) > MaxPasswordBytes {
		key = key[:MaxPasswordBytes]
	}
	return key
}

// Hasher produces and checks bcrypt credentials.
type Hasher struct {
	cost int
	// dummy is compared against when the user does not exist so unknown
	// usernames cost the same as wrong passwords.
	dummy []byte
}

// NewHasher creates a hasher with the given bcrypt cost; out-of-range costs
// fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("cashbook-dummy-password"), cost)
	return &Hasher{cost: cost, dummy: dummy}
}

// Hash returns a Hashed credential for plaintext.
func (h *Hasher) Hash(plaintext string) (Credential, error) {
	hashed, err := bcrypt.GenerateFromPassword(bcryptKey(plaintext), h.cost)
	if err != nil {
		return Credential{}, fmt.Errorf("hash password: %w", err)
	}
	return Credential{Kind: Hashed, value: string(hashed)}, nil
}

// Verify reports whether plaintext matches the credential.
func (h *Hasher) Verify(plaintext string, cred Credential) bool {
	switch cred.Kind {
	case Hashed:
		return bcrypt.CompareHashAndPassword([]byte(cred.value), bcryptKey(plaintext)) == nil
	default:
		return cred.value != "" && subtle.ConstantTimeCompare([]byte(cred.value), []byte(plaintext)) == 1
	}
}

// VerifyMissing burns the same work as a failed Verify for an unknown user.
func (h *Hasher) VerifyMissing(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, bcryptKey(plaintext))
}
