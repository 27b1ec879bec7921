package roomlist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"showroom-archives/lib/telemetry"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

const fixtureCsv = "名前,備考,ルームURL,アカウントID\n" +
	"Alpha,memo,room42,acct1\n" +
	"Beta,,room77,acct2\n" +
	"Gamma,,room99,\n" +
	"Delta,,room100,acct2\n"

func serveCsv(t *testing.T, body []byte, hits *atomic.Int64) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLoadBuildsMapping(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:roomlist")
	defer cleanup()

	server := serveCsv(t, []byte(fixtureCsv), nil)

	table, err := NewLoader(LoaderOptions{}).Load(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	roomKey, ok := table.Lookup("acct1")
	require.True(t, ok)
	require.Equal(t, "room42", roomKey)

	// the row with an empty account id is dropped
	_, ok = table.Lookup("")
	require.False(t, ok)

	// last-seen-wins on the duplicated account id
	roomKey, ok = table.Lookup("acct2")
	require.True(t, ok)
	require.Equal(t, "room100", roomKey)
}

func TestLoadShiftJis(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:roomlist")
	defer cleanup()

	encoded, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(fixtureCsv))
	require.NoError(t, err)
	server := serveCsv(t, encoded, nil)

	table, err := NewLoader(LoaderOptions{}).Load(context.Background(), server.URL)
	require.NoError(t, err)

	roomKey, ok := table.Lookup("acct1")
	require.True(t, ok)
	require.Equal(t, "room42", roomKey)
}

func TestLoadSchemaError(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:roomlist")
	defer cleanup()

	server := serveCsv(t, []byte("a,b\n1,2\n"), nil)

	_, err := NewLoader(LoaderOptions{}).Load(context.Background(), server.URL)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, 2, schemaErr.Columns)
}

func TestLoadStatusError(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:roomlist")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewLoader(LoaderOptions{}).Load(context.Background(), server.URL)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
}

func TestLoadCachesByUrl(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:roomlist")
	defer cleanup()

	var hits atomic.Int64
	server := serveCsv(t, []byte(fixtureCsv), &hits)

	loader := NewLoader(LoaderOptions{})
	first, err := loader.Load(context.Background(), server.URL)
	require.NoError(t, err)
	second, err := loader.Load(context.Background(), server.URL)
	require.NoError(t, err)

	require.Equal(t, int64(1), hits.Load())
	require.Equal(t, first.FetchedAt, second.FetchedAt)
}

func TestLoadFailureIsNotCached(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:roomlist")
	defer cleanup()

	var fail atomic.Bool
	fail.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(fixtureCsv))
	}))
	defer server.Close()

	loader := NewLoader(LoaderOptions{})
	_, err := loader.Load(context.Background(), server.URL)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))

	fail.Store(false)
	table, err := loader.Load(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
}
