package base32

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode_RFC4648Vectors(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"f", "MY"},
		{"fo", "MZXQ"},
		{"foo", "MZXW6"},
		{"foob", "MZXW6YQ"},
		{"fooba", "MZXW6YTB"},
		{"foobar", "MZXW6YTBOI"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, Encode([]byte(tc.in)))
			require.Equal(t, tc.in, string(Decode(tc.want)))
		})
	}
}

func TestDecode_Lenient(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "mzxw6ytboi", "foobar"},
		{"padding and separators", "MZXW-6YTB OI======", "foobar"},
		{"invalid symbols dropped", "MZ1XW86", "foo"},
		{"trailing partial symbol discarded", "MZXW6YTBO", "fooba"},
		{"single symbol", "M", ""},
		{"only garbage", "!!!189", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, string(Decode(tc.in)))
		})
	}
}

func TestDecodeStrict(t *testing.T) {
	got, err := DecodeStrict("mzxw6ytboi======")
	require.NoError(t, err)
	require.Equal(t, "foobar", string(got))

	_, err = DecodeStrict("MZXW 6YTB")
	require.ErrorIs(t, err, ErrInvalidCharacter)

	_, err = DecodeStrict("MZXW1")
	require.ErrorIs(t, err, ErrInvalidCharacter)
}

func TestRoundTrip(t *testing.T) {
	for n := 0; n <= 64; n++ {
		b := make([]byte, n)
		_, err := rand.Read(b)
		require.NoError(t, err)

		enc := Encode(b)
		require.NotContains(t, enc, "=")
		got := Decode(enc)
		if n == 0 {
			require.Empty(t, got)
			continue
		}
		require.Equal(t, b, got, "length %d", n)
	}
}
