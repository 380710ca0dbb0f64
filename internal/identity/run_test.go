package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"formatted with dots and dash", "19.141.061-0", "19141061-0"},
		{"check digit K", "24.360.785-K", "24360785-K"},
		{"lowercase k", "24360785k", "24360785-K"},
		{"plain digits", "21072613-6", "21072613-6"},
		{"classic example", "12.345.678-5", "12345678-5"},
		{"spaces and noise", " 19 141 061 0 ", "19141061-0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Normalizing the normalized form is a fixed point.
			again, err := Normalize(got)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"too short", "1-9"},
		{"six characters", "123456"},
		{"mutated check digit", "19.141.061-1"},
		{"wrong check digit K", "19141061-K"},
		{"letters in body", "12A45678-5"},
		{"only punctuation", "...---..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			require.ErrorIs(t, err, ErrInvalidID)
		})
	}
}

func TestCheckDigit(t *testing.T) {
	tests := []struct {
		body string
		want byte
	}{
		{"19141061", '0'},
		{"24360785", 'K'},
		{"21072613", '6'},
		{"12345678", '5'},
	}

	for _, tt := range tests {
		assert.Equal(t, string(tt.want), string(CheckDigit(tt.body)), "body %s", tt.body)
	}
}

func TestFormatName(t *testing.T) {
	assert.Equal(t, "Juan Perez", FormatName("  juan   PEREZ "))
	assert.Equal(t, "General Medicine", FormatName("general medicine"))
	assert.Equal(t, "Cardiology", FormatName("CARDIOLOGY"))
	assert.Equal(t, "", FormatName("   "))
}
