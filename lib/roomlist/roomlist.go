package roomlist

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"showroom-archives/lib/restyutil"
	"showroom-archives/lib/timezone"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/encoding/japanese"
)

// the operator-maintained room list csv places the room url key in the
// third column and the account id in the fourth, everything else in the
// sheet is ignored. only positions matter, header names do not.
const (
	roomKeyColumn   = 2
	accountIdColumn = 3
	minColumns      = 4
)

var ErrDecode = fmt.Errorf("room list is neither valid utf-8 nor shift_jis")

// FetchError is a transport failure or a non-2xx status while pulling
// the room list csv.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch room list %s: %s", e.URL, e.Err.Error())
	}
	return fmt.Sprintf("fetch room list %s: status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SchemaError means the csv decoded fine but doesn't have enough
// columns to carry a room key and an account id.
type SchemaError struct {
	Columns int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf(
		"room list csv has %d columns, need at least %d",
		e.Columns, minColumns,
	)
}

// Table is an immutable account id -> room key mapping built from one
// successful fetch of the room list.
type Table struct {
	mapping   map[string]string
	FetchedAt time.Time
}

func (t Table) Lookup(accountId string) (string, bool) {
	roomKey, ok := t.mapping[accountId]
	return roomKey, ok
}

func (t Table) Len() int {
	return len(t.mapping)
}

type LoaderOptions struct {
	// zero means 30 seconds
	Timeout time.Duration
	// zero means 1 hour
	CacheTTL time.Duration
}

// Loader fetches and caches the room list. The cache holds one table
// per source url; entries expire wholesale, a failed refresh caches
// nothing so the next call re-attempts.
type Loader struct {
	http  *resty.Client
	cache *expirable.LRU[string, Table]
}

func NewLoader(opts LoaderOptions) *Loader {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = time.Hour
	}

	client := resty.New()
	client.SetTimeout(timeout)
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Loader{
		http:  client,
		cache: expirable.NewLRU[string, Table](8, nil, ttl),
	}
}

func (l *Loader) Load(ctx context.Context, url string) (Table, error) {
	ctx, span := tracer.Start(ctx, "Load")
	defer span.End()

	cached, hit := l.cache.Get(url)
	if hit {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	table, err := l.fetch(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch room list")
		return Table{}, err
	}

	l.cache.Add(url, table)
	slog.InfoContext(ctx, "room list refreshed", "url", url, "entries", table.Len())
	return table, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (Table, error) {
	res, err := l.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return Table{}, &FetchError{URL: url, Err: err}
	}
	if res.IsError() {
		return Table{}, &FetchError{URL: url, StatusCode: res.StatusCode()}
	}

	data, err := decodeRoomList(res.Body())
	if err != nil {
		return Table{}, err
	}
	return parseRoomList(data)
}

// the sheet is exported by hand, sometimes as utf-8 and sometimes in
// the legacy shift_jis encoding, so try both
func decodeRoomList(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
	if err != nil {
		return "", ErrDecode
	}
	return string(decoded), nil
}

func parseRoomList(data string) (Table, error) {
	reader := csv.NewReader(strings.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parse room list csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, &SchemaError{Columns: 0}
	}
	if len(records[0]) < minColumns {
		return Table{}, &SchemaError{Columns: len(records[0])}
	}

	mapping := map[string]string{}
	for _, row := range records[1:] {
		if len(row) < minColumns {
			continue
		}
		accountId := strings.TrimSpace(row[accountIdColumn])
		if accountId == "" {
			continue
		}
		// last-seen-wins on duplicate account ids
		mapping[accountId] = strings.TrimSpace(row[roomKeyColumn])
	}

	return Table{
		mapping:   mapping,
		FetchedAt: timezone.Now(),
	}, nil
}
