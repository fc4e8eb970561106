package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParseCredential(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("pw1"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name    string
		stored  string
		kind    CredentialKind
		upgrade bool
	}{
		{"bcrypt 2a", string(hashed), Hashed, false},
		{"bcrypt 2y", "$2y$10$abcdefghijklmnopqrstuu", Hashed, false},
		{"plaintext", "pw1", Plain, true},
		{"plaintext with dollar", "$ecret", Plain, true},
		{"empty", "", Plain, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred := ParseCredential(tt.stored)
			assert.Equal(t, tt.kind, cred.Kind)
			assert.Equal(t, tt.upgrade, cred.NeedsUpgrade())
			assert.Equal(t, tt.stored, cred.String())
		})
	}
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	cred, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.Equal(t, Hashed, cred.Kind)
	assert.True(t, strings.HasPrefix(cred.String(), "$2"))
	assert.Equal(t, Hashed, ParseCredential(cred.String()).Kind)

	assert.True(t, h.Verify("pw1", cred))
	assert.False(t, h.Verify("pw2", cred))
	assert.False(t, h.Verify("", cred))

	other, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, cred.String(), other.String(), "salts must differ")
}

func TestHasher_LongPasswordUsesFirst72Bytes(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	long := strings.Repeat("€", 30)

	cred, err := h.Hash(long)
	require.NoError(t, err)
	assert.True(t, h.Verify(long, cred))
	assert.True(t, h.Verify(long[:MaxPasswordBytes], cred))
	assert.False(t, h.Verify(long[:MaxPasswordBytes-3], cred))

	h.VerifyMissing(long)
}

func TestHasher_VerifyPlain(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	assert.True(t, h.Verify("pw1", ParseCredential("pw1")))
	assert.False(t, h.Verify("pw", ParseCredential("pw1")))
	assert.False(t, h.Verify("", ParseCredential("")))
}

func TestHasher_VerifyCorruptHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	assert.False(t, h.Verify("pw1", ParseCredential("$2a$not-a-hash")))
}

func TestNewHasher_CostBounds(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).cost)
}

func TestCredentialKind_String(t *testing.T) {
	assert.Equal(t, "hashed", Hashed.String())
	assert.Equal(t, "plain", Plain.String())
}
