package showroom

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"showroom-archives/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const DefaultBaseUrl = "https://www.showroom-live.com"

// the host serves a japanese page variant depending on this cookie,
// the archive parser depends on the japanese layout
const (
	localeCookieName  = "i18n_redirected"
	localeCookieValue = "ja"
)

var ErrInvalidCredential = fmt.Errorf("no usable name=value pairs in the credential string")

// Client is an authenticated browser-shaped session against the
// showroom host, built once from an operator-supplied cookie string.
// It is meant to serve a single resolution at a time, not to be shared
// across concurrent lookups.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	Cookies []*http.Cookie
}

type ClientOptions struct {
	// zero value means DefaultBaseUrl
	BaseUrl string
	// the raw "name=value; name=value" cookie string captured from an
	// authenticated browser session
	Credential string
	// zero means 30 seconds
	Timeout time.Duration
	// route requests through the cloudflare bypass transport
	CloudflareBypass bool
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrlStr := opts.BaseUrl
	if baseUrlStr == "" {
		baseUrlStr = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(baseUrlStr)
	if err != nil {
		return nil, err
	}

	cookies, err := parseCredential(opts.Credential)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(baseUrlStr)
	client.SetCookies(cookies)
	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36")
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("accept-language", "ja,en-US;q=0.9,en;q=0.8")

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
		Cookies: cookies,
	}, nil
}

// splits a raw "name=value; name=value" string into cookies, skipping
// segments without a `=` instead of failing the whole credential. the
// forced locale cookie is appended afterwards and does not count
// toward the validity check.
func parseCredential(credential string) ([]*http.Cookie, error) {
	var cookies []*http.Cookie
	seen := map[string]int{}

	for _, segment := range strings.Split(credential, ";") {
		segment = strings.TrimSpace(segment)
		name, value, found := strings.Cut(segment, "=")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		if at, dup := seen[name]; dup {
			cookies[at].Value = value
			continue
		}
		seen[name] = len(cookies)
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}

	if len(cookies) == 0 {
		return nil, ErrInvalidCredential
	}

	if at, dup := seen[localeCookieName]; dup {
		cookies[at].Value = localeCookieValue
	} else {
		cookies = append(cookies, &http.Cookie{
			Name:  localeCookieName,
			Value: localeCookieValue,
		})
	}
	return cookies, nil
}
