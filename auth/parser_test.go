package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONParser(t *testing.T) {
	t.Run("token field", func(t *testing.T) {
		got, err := JSONParser{}.Parse([]byte(`{"token":"a.b.c"}`))
		require.NoError(t, err)
		assert.Equal(t, "a.b.c", got)
	})

	t.Run("access_token fallback", func(t *testing.T) {
		got, err := JSONParser{}.Parse([]byte(`{"access_token":"x.y.z","token_type":"bearer"}`))
		require.NoError(t, err)
		assert.Equal(t, "x.y.z", got)
	})

	t.Run("token wins over access_token", func(t *testing.T) {
		got, err := JSONParser{}.Parse([]byte(`{"token":"a.b.c","access_token":"x.y.z"}`))
		require.NoError(t, err)
		assert.Equal(t, "a.b.c", got)
	})

	t.Run("no token fields", func(t *testing.T) {
		_, err := JSONParser{}.Parse([]byte(`{"expires_in":60}`))
		assert.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := JSONParser{}.Parse([]byte(`a.b.c`))
		assert.Error(t, err)
	})
}

func TestRawTextParser(t *testing.T) {
	got, err := RawTextParser{}.Parse([]byte("a.b.c\n"))
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", got)

	got, err = RawTextParser{}.Parse([]byte(`"a.b.c"`))
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", got)

	_, err = RawTextParser{}.Parse([]byte("   "))
	assert.Error(t, err)

	for _, body := range []string{
		`{"token":"revoked","issuer":"auth.example.com"}`,
		`["a.b.c"]`,
		"a.b c.d",
		`a.b,c.d`,
		`"a.b c"`,
	} {
		_, err := RawTextParser{}.Parse([]byte(body))
		assert.Error(t, err, "body %q", body)
	}
}
