package archives

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"showroom-archives/lib/roomlist"
	"showroom-archives/lib/scrapers/showroom"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrIdentifierNotFound means the room list loaded fine but does not
// carry the given account id. Common and expected, callers should
// message it differently from a system failure.
var ErrIdentifierNotFound = fmt.Errorf("account id is not present in the room list")

type Config struct {
	// url of the operator-maintained room list csv
	RoomListUrl string `json:"room_list_url"`
	// zero value means showroom.DefaultBaseUrl
	BaseUrl string `json:"base_url"`
	// raw cookie string captured from an authenticated session
	Credential string `json:"credential"`
	// zero means 60
	CacheTtlMinutes int `json:"cache_ttl_minutes"`
	// zero means 30
	TimeoutSeconds   int  `json:"timeout_seconds"`
	CloudflareBypass bool `json:"cloudflare_bypass"`
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds == 0 {
		return time.Second * 30
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) cacheTtl() time.Duration {
	if c.CacheTtlMinutes == 0 {
		return time.Hour
	}
	return time.Duration(c.CacheTtlMinutes) * time.Minute
}

// Result is the archive listing for one resolved account id. State
// distinguishes "archives found" from the two benign empty shapes;
// every failure kind travels as an error instead.
type Result struct {
	RoomKey  string
	RoomName string
	State    showroom.PageState
	Records  []showroom.ArchiveRecord
}

// Service resolves account ids to rooms and extracts their archive
// listings. Stateless across calls except for the room list cache
// inside the loader.
type Service struct {
	config Config
	loader *roomlist.Loader
}

func NewService(config Config) Service {
	return Service{
		config: config,
		loader: roomlist.NewLoader(roomlist.LoaderOptions{
			Timeout:  config.timeout(),
			CacheTTL: config.cacheTtl(),
		}),
	}
}

// ResolveArchives runs the whole pipeline for one account id: room list
// lookup (cached), session build, archive page fetch, parse. Each stage
// gets a single attempt, its failures propagate unchanged and are
// distinguishable with errors.Is/errors.As: roomlist fetch/decode/
// schema errors, showroom.ErrInvalidCredential, showroom.FetchError,
// showroom.ErrLoginExpired, and ErrIdentifierNotFound from here.
func (s Service) ResolveArchives(ctx context.Context, accountId string) (Result, error) {
	ctx, span := tracer.Start(ctx, "ResolveArchives")
	defer span.End()

	table, err := s.loader.Load(ctx, s.config.RoomListUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load room list")
		return Result{}, err
	}

	roomKey, ok := table.Lookup(accountId)
	if !ok {
		span.SetStatus(codes.Error, ErrIdentifierNotFound.Error())
		return Result{}, ErrIdentifierNotFound
	}
	span.SetAttributes(attribute.String("room_key", roomKey))

	client, err := showroom.NewClient(showroom.ClientOptions{
		BaseUrl:          s.config.BaseUrl,
		Credential:       s.config.Credential,
		Timeout:          s.config.timeout(),
		CloudflareBypass: s.config.CloudflareBypass,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build session")
		return Result{}, err
	}

	page, err := client.LiveArchives(ctx, roomKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get archive page")
		return Result{}, err
	}

	slog.DebugContext(
		ctx, "resolved archives",
		"room_key", roomKey,
		"room_name", page.RoomName,
		"state", page.State.String(),
		"records", len(page.Records),
	)
	return Result{
		RoomKey:  roomKey,
		RoomName: page.RoomName,
		State:    page.State,
		Records:  page.Records,
	}, nil
}
