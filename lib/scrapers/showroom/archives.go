package showroom

import (
	"bytes"
	"context"
	"fmt"

	"showroom-archives/lib/htmlutil"
	"showroom-archives/lib/textutil"
	"showroom-archives/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// heading label the host appends after the room name, stripped before
// the name is surfaced
const archiveListLabel = " 配信アーカイブ一覧"

const unknownRoomName = "不明なルーム"

// ErrLoginExpired means the host answered with its login page instead
// of the archive listing, which is how an expired or rejected cookie
// credential shows up. The operator has to capture a fresh credential.
var ErrLoginExpired = fmt.Errorf("archive page looks like a login page, the session cookie has likely expired")

// FetchError is a transport failure or non-2xx status from the
// archive endpoint.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Err.Error())
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError wraps anything unexpected that escapes the archive page
// parser, so callers never see a raw panic from markup edge cases.
type ParseError struct {
	RoomKey string
	Reason  any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse archive page for room %q: %v", e.RoomKey, e.Reason)
}

type PageState int

const (
	// page reachable but no archive table, either no archives were
	// generated yet or the page layout changed. explicitly not an
	// authentication failure.
	StateNoTable PageState = iota
	// archive table present with zero rows
	StateEmpty
	StatePopulated
)

func (s PageState) String() string {
	switch s {
	case StateNoTable:
		return "no_table"
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	}
	return "unknown"
}

// ArchiveRecord is one discoverable past broadcast: the display text of
// its time window and a reference to the downloadable file.
type ArchiveRecord struct {
	TimePeriod       string
	DownloadUrl      string
	DownloadFilename string
}

type ArchivePage struct {
	RoomName string
	State    PageState
	// in source order, the host already sorts them
	Records []ArchiveRecord
}

// phrases that only show up on the host's login/signup page, already
// normalized for textutil.ContainsAny
var loginPagePhrases = []string{"ログイン", "会員登録", "サインイン"}

// the login heuristic is string containment on a handful of phrases,
// keep it behind one predicate so it can be swapped for a stronger
// signal without touching the parser
func looksLikeLoginPage(markup string) bool {
	return textutil.ContainsAny(markup, loginPagePhrases)
}

// LiveArchives fetches and parses the room's archive listing page with
// a single request, no retries.
func (c *Client) LiveArchives(ctx context.Context, roomKey string) (ArchivePage, error) {
	ctx, span := tracer.Start(ctx, "client:LiveArchives")
	defer span.End()
	span.SetAttributes(attribute.String("room_key", roomKey))

	target := fmt.Sprintf("%s/room/%s/live_archives", c.BaseUrl, roomKey)
	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("referer", fmt.Sprintf("%s/room/%s", c.BaseUrl, roomKey)).
		Get(fmt.Sprintf("/room/%s/live_archives", roomKey))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch archive page")
		return ArchivePage{}, &FetchError{URL: target, Err: err}
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "archive page returned an error status")
		return ArchivePage{}, &FetchError{URL: target, StatusCode: res.StatusCode()}
	}

	page, err := parseArchivePage(res.Body(), roomKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse archive page")
		return ArchivePage{}, err
	}

	span.SetAttributes(
		attribute.String("state", page.State.String()),
		attribute.Int("records", len(page.Records)),
	)
	return page, nil
}

func parseArchivePage(markup []byte, roomKey string) (page ArchivePage, err error) {
	// markup edge cases must never escape as panics, degrade to a
	// ParseError instead
	defer func() {
		if r := recover(); r != nil {
			page = ArchivePage{}
			err = &ParseError{RoomKey: roomKey, Reason: r}
		}
	}()

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(markup))
	if err != nil {
		return ArchivePage{}, &ParseError{RoomKey: roomKey, Reason: err}
	}

	roomName := unknownRoomName
	heading := doc.Find("p.head-main")
	if len(heading.Nodes) > 0 {
		roomName = textutil.StripTrailingLabel(
			htmlutil.CleanText(heading.Nodes[0]),
			archiveListLabel,
		)
	}

	table := doc.Find("table.table")
	if len(table.Nodes) == 0 {
		if looksLikeLoginPage(string(markup)) {
			return ArchivePage{}, ErrLoginExpired
		}
		return ArchivePage{RoomName: roomName, State: StateNoTable}, nil
	}

	var records []ArchiveRecord
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if len(cells.Nodes) != 2 {
			return
		}

		anchor := cells.Eq(1).Find("a.btn-light-green")
		if len(anchor.Nodes) == 0 {
			return
		}
		href := htmlutil.Attr(anchor.Nodes[0], "href")
		if href == "" {
			return
		}

		filename := htmlutil.Attr(anchor.Nodes[0], "download")
		if filename == "" {
			filename = fmt.Sprintf("%s_%d.mp4", roomKey, timezone.Now().Unix())
		}

		records = append(records, ArchiveRecord{
			TimePeriod:       htmlutil.CleanText(cells.Nodes[0]),
			DownloadUrl:      href,
			DownloadFilename: filename,
		})
	})

	if len(records) == 0 {
		return ArchivePage{RoomName: roomName, State: StateEmpty}, nil
	}
	return ArchivePage{
		RoomName: roomName,
		State:    StatePopulated,
		Records:  records,
	}, nil
}
