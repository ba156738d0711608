package randx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRoomCode_Alphabet(t *testing.T) {
	for range 50 {
		code, err := RoomCode()
		require.NoError(t, err)
		assert.Len(t, code, RoomCodeLength)

		normalized, ok := NormalizeRoomCode(code)
		assert.True(t, ok)
		assert.Equal(t, code, normalized)
	}
}

func TestNormalizeRoomCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"ab12", "AB12", true},
		{"  zz99 ", "ZZ99", true},
		{"AB12", "AB12", true},
		{"", "", false},
		{"   ", "", false},
		{"ab-12", "AB-12", true},
		{"game_1!", "GAME_1!", true},
		{"échec", "ÉCHEC", true},
		{"ab 12", "", false},
		{"ab\t12", "", false},
		{"ab\x0012", "", false},
		{strings.Repeat("A", MaxRoomCodeLength+1), "", false},
		{strings.Repeat("é", MaxRoomCodeLength), strings.Repeat("É", MaxRoomCodeLength), true},
	}

	for _, tt := range tests {
		got, ok := NormalizeRoomCode(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestNormalizeRoomCode_CaseInsensitive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := rapid.StringMatching(`[a-zA-Z0-9]{1,16}`).Draw(t, "code")

		lower, okLower := NormalizeRoomCode(strings.ToLower(code))
		upper, okUpper := NormalizeRoomCode(strings.ToUpper(code))

		if !okLower || !okUpper {
			t.Fatalf("valid code %q rejected", code)
		}
		if lower != upper {
			t.Fatalf("normalization not case-insensitive: %q vs %q", lower, upper)
		}
	})
}

func TestMessageID_Unique(t *testing.T) {
	assert.NotEqual(t, MessageID(), MessageID())
	assert.NotEqual(t, ConnectionID(), ConnectionID())
}
