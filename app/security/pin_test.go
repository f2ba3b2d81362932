package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePIN(t *testing.T) {
	assert.NoError(t, ValidatePIN("1234"))
	assert.NoError(t, ValidatePIN("123456"))
	assert.Error(t, ValidatePIN("123"))
	assert.Error(t, ValidatePIN("1234567"))
	assert.Error(t, ValidatePIN("12ab"))
	assert.Error(t, ValidatePIN(""))
}

func TestHashAndVerifyPIN(t *testing.T) {
	hash, err := HashPIN("4321")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "4321", hash)

	assert.True(t, VerifyPIN(hash, "4321"))
	assert.False(t, VerifyPIN(hash, "1234"))
}

func TestHashPINRejectsInvalid(t *testing.T) {
	_, err := HashPIN("12")
	assert.Error(t, err)
}
