package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "clubroster/pkg/domain-errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"too short", "short1!", "at least 10 characters"},
		{"accepted", "LongEnough1!", ""},
		{"missing digit", "LongEnough!!", "at least one number"},
		{"missing uppercase", "longenough1!", "uppercase letter"},
		{"missing symbol", "LongEnough11", "special character"},
		{"empty", "", "at least 10 characters"},
		{"symbols from the extended set", `Aa1"}{<>,.?`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeWeakPassword))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenerateTempSatisfiesPolicy(t *testing.T) {
	// Volume matters here: a generator whose patches can clobber each
	// other's class representatives slips past small sample sizes.
	for i := 0; i < 20000; i++ {
		password, err := GenerateTemp()
		require.NoError(t, err)
		require.Len(t, password, TempLength)
		require.NoErrorf(t, Validate(password), "generated %q", password)
		// The generator alphabet only emits a subset of the policy's
		// symbol set.
		for _, r := range password {
			require.Truef(t, strings.ContainsRune(generatorAlphabet, r), "unexpected character %q in %q", r, password)
		}
	}
}

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := NewBcryptHasher()
	hash, err := hasher.Hash("W6ABC")
	require.NoError(t, err)
	assert.NotEqual(t, "W6ABC", hash)

	assert.NoError(t, hasher.Verify("W6ABC", hash))

	err = hasher.Verify("wrong", hash)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePasswordMismatch))
}
