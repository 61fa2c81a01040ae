package core

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"wticket-bot/lib/restyutil"
	"wticket-bot/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/wticket/core")

// Client holds the one live WTicket session. The session cookie is
// unsynchronized state: a Client must not be shared between goroutines,
// give every logical session its own instance instead.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	token  string
	cookie string
}

type ClientOptions struct {
	BaseUrl string
	// optional, dumps every request/response pair to a directory
	Debug restyutil.DebugOutput
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/wticket/http")
	if opts.Debug != nil {
		restyutil.DumpTraffic(client, opts.Debug)
	}

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}
	return c, nil
}

// SetToken replaces the session with a bare JSESSIONID token. Every
// session mutation goes through SetToken/SetCookieHeader so there is
// exactly one writer to audit.
func (c *Client) SetToken(token string) {
	c.token = token
	c.cookie = "JSESSIONID=" + token
}

// SetCookieHeader replaces the session with a full browser-managed
// cookie header ("name=value; name=value"). Used by the browser-driven
// login variant, which hands over every cookie the page accumulated.
func (c *Client) SetCookieHeader(header string) {
	c.cookie = header
	c.token = ""
	for _, pair := range strings.Split(header, "; ") {
		name, value, ok := strings.Cut(pair, "=")
		if ok && name == "JSESSIONID" {
			c.token = value
			return
		}
	}
}

func (c *Client) Token() string {
	return c.token
}

// R starts a request carrying the current session cookie.
func (c *Client) R(ctx context.Context) *resty.Request {
	req := c.Http.R().SetContext(ctx)
	if c.cookie != "" {
		req.SetHeader("Cookie", c.cookie)
	}
	return req
}

// sessionToken pulls the token out of the first Set-Cookie entry,
// value up to the first ';', text after the first '='.
func sessionToken(res *resty.Response) (string, bool) {
	setCookie := res.RawResponse.Header["Set-Cookie"]
	if len(setCookie) == 0 {
		return "", false
	}
	pair, _, _ := strings.Cut(setCookie[0], ";")
	_, value, ok := strings.Cut(pair, "=")
	if !ok {
		return "", false
	}
	return value, true
}

// Login authenticates over plain HTTP: fetch the login page for an
// anonymous session cookie, refresh that session, then post the
// credentials and keep the token the server hands back.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.R(ctx).Get("/jsp/wf/index.jsp")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}
	if token, ok := sessionToken(res); ok {
		c.SetToken(token)
	}

	_, err = c.R(ctx).
		SetQueryParam("action", "refreshsession").
		Post("/login")
	if err != nil {
		span.SetStatus(codes.Error, "failed to refresh session")
		return err
	}

	res, err = c.R(ctx).
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		}).
		Post("/login")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return err
	}
	if token, ok := sessionToken(res); ok {
		c.SetToken(token)
	}

	if !res.IsSuccess() {
		message := res.Header().Get("message")
		if message == "" {
			message = "Something went wrong"
		}
		span.SetStatus(codes.Error, message)
		return errors.New(message)
	}

	return nil
}

// Logout is best effort: the server invalidates sessions on its own
// schedule anyway, so a failed logout is logged and swallowed.
func (c *Client) Logout(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "client:Logout")
	defer span.End()

	_, err := c.R(ctx).Get("/login/wf/logout.jsp")
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "logout failed", "err", err)
	}
}
