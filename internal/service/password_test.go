package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	req := require.New(t)
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("123456")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$2a$"))
	req.NotContains(hash, "123456")

	match, err := h.Compare("123456", hash)
	req.NoError(err)
	req.True(match)

	match, err = h.Compare("654321", hash)
	req.NoError(err)
	req.False(match)

	match, err = h.Compare("123456", "not-a-bcrypt-hash")
	req.Error(err)
	req.False(match)
}

func TestBcryptDummyHashMatchesNothing(t *testing.T) {
	req := require.New(t)
	h := NewBcryptHasher(bcrypt.MinCost)

	dummy := h.DummyHash()
	req.True(strings.HasPrefix(dummy, "$2a$04$"))
	req.Equal(dummy, h.DummyHash())

	for _, password := range []string{"", "123456", "password"} {
		match, err := h.Compare(password, dummy)
		req.NoError(err)
		req.False(match)
	}
}
