package showroom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func cookieValue(c *Client, name string) (string, bool) {
	for _, cookie := range c.Cookies {
		if cookie.Name == name {
			return cookie.Value, true
		}
	}
	return "", false
}

func TestNewClientParsesCredential(t *testing.T) {
	client, err := NewClient(ClientOptions{
		Credential: "sr_id=abc123; _gid = GA1.2.3 ;garbage; empty=",
	})
	require.NoError(t, err)

	value, ok := cookieValue(client, "sr_id")
	require.True(t, ok)
	require.Equal(t, "abc123", value)

	value, ok = cookieValue(client, "_gid")
	require.True(t, ok)
	require.Equal(t, "GA1.2.3", value)

	value, ok = cookieValue(client, "empty")
	require.True(t, ok)
	require.Equal(t, "", value)

	_, ok = cookieValue(client, "garbage")
	require.False(t, ok)

	// the locale cookie is always present
	value, ok = cookieValue(client, "i18n_redirected")
	require.True(t, ok)
	require.Equal(t, "ja", value)
}

func TestNewClientForcesLocaleCookie(t *testing.T) {
	client, err := NewClient(ClientOptions{
		Credential: "sr_id=abc; i18n_redirected=en",
	})
	require.NoError(t, err)

	value, ok := cookieValue(client, "i18n_redirected")
	require.True(t, ok)
	require.Equal(t, "ja", value)
}

func TestNewClientRejectsGarbageCredential(t *testing.T) {
	_, err := NewClient(ClientOptions{Credential: "garbage"})
	require.ErrorIs(t, err, ErrInvalidCredential)

	_, err = NewClient(ClientOptions{Credential: ""})
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestNewClientLocaleCookieDoesNotValidate(t *testing.T) {
	// a credential that parses to zero pairs is invalid even though the
	// injected locale cookie would make the final set non-empty
	_, err := NewClient(ClientOptions{Credential: "a; b; c"})
	require.ErrorIs(t, err, ErrInvalidCredential)
}
