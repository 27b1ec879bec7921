package archives

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"showroom-archives/lib/scrapers/showroom"
	"showroom-archives/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const roomListCsv = "名前,備考,ルームURL,アカウントID\n" +
	"Alpha,memo,room42,acct1\n"

const archivePage = `<html><body>
<p class="head-main">RoomName 配信アーカイブ一覧</p>
<table class="table">
<tbody>
<tr><td>2024/01/01 10:00-11:00</td><td><a class="btn-light-green" href="/dl/1" download="jan1.mp4">DL</a></td></tr>
</tbody>
</table>
</body></html>`

const loginPage = `<html><body><p>ログインしてください</p></body></html>`

type fakeHost struct {
	server       *httptest.Server
	csvHits      atomic.Int64
	archiveBody  atomic.Pointer[string]
	archiveState atomic.Int64
}

func newFakeHost(t *testing.T) *fakeHost {
	h := &fakeHost{}
	body := archivePage
	h.archiveBody.Store(&body)
	h.archiveState.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("/room_list.csv", func(w http.ResponseWriter, r *http.Request) {
		h.csvHits.Add(1)
		fmt.Fprint(w, roomListCsv)
	})
	mux.HandleFunc("/room/room42/live_archives", func(w http.ResponseWriter, r *http.Request) {
		status := int(h.archiveState.Load())
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		fmt.Fprint(w, *h.archiveBody.Load())
	})

	h.server = httptest.NewServer(mux)
	t.Cleanup(h.server.Close)
	return h
}

func (h *fakeHost) config() Config {
	return Config{
		RoomListUrl: h.server.URL + "/room_list.csv",
		BaseUrl:     h.server.URL,
		Credential:  "sid=abc; other=1",
	}
}

func TestResolveArchives(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/archives")
	defer cleanup()

	host := newFakeHost(t)
	service := NewService(host.config())

	result, err := service.ResolveArchives(context.Background(), "acct1")
	require.NoError(t, err)
	require.Equal(t, "room42", result.RoomKey)
	require.Equal(t, "RoomName", result.RoomName)
	require.Equal(t, showroom.StatePopulated, result.State)
	require.Equal(t, []showroom.ArchiveRecord{{
		TimePeriod:       "2024/01/01 10:00-11:00",
		DownloadUrl:      "/dl/1",
		DownloadFilename: "jan1.mp4",
	}}, result.Records)
}

func TestResolveArchivesIsIdempotent(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/archives")
	defer cleanup()

	host := newFakeHost(t)
	service := NewService(host.config())

	first, err := service.ResolveArchives(context.Background(), "acct1")
	require.NoError(t, err)
	second, err := service.ResolveArchives(context.Background(), "acct1")
	require.NoError(t, err)

	require.Equal(t, first, second)
	// the room list is cached across invocations
	require.Equal(t, int64(1), host.csvHits.Load())
}

func TestResolveArchivesUnknownIdentifier(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/archives")
	defer cleanup()

	host := newFakeHost(t)
	service := NewService(host.config())

	_, err := service.ResolveArchives(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrIdentifierNotFound)
}

func TestResolveArchivesExpiredCredential(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/archives")
	defer cleanup()

	host := newFakeHost(t)
	body := loginPage
	host.archiveBody.Store(&body)
	service := NewService(host.config())

	_, err := service.ResolveArchives(context.Background(), "acct1")
	require.ErrorIs(t, err, showroom.ErrLoginExpired)
}

func TestResolveArchivesInvalidCredential(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/archives")
	defer cleanup()

	host := newFakeHost(t)
	config := host.config()
	config.Credential = "garbage"
	service := NewService(config)

	_, err := service.ResolveArchives(context.Background(), "acct1")
	require.ErrorIs(t, err, showroom.ErrInvalidCredential)
}

func TestResolveArchivesFetchFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/archives")
	defer cleanup()

	host := newFakeHost(t)
	host.archiveState.Store(http.StatusBadGateway)
	service := NewService(host.config())

	_, err := service.ResolveArchives(context.Background(), "acct1")
	var fetchErr *showroom.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)
}
