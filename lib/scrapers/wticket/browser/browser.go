// Package browser drives the WTicket login UI through a real browser.
// The plain-HTTP login in core works for most deployments, but some
// put a script-heavy login page in front that only a browser gets
// through; this variant automates that page and then hands the cookies
// over to the core client for everything else.
package browser

import (
	"context"
	"fmt"
	"wticket-bot/lib/scrapers/wticket/core"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/wticket/browser")

// Browser is the capability the session manager needs from a browser
// driver. chromedp implements it in this package; tests substitute a
// fake.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	// ClickButton clicks the a.atsc-button whose visible text matches
	// exactly.
	ClickButton(ctx context.Context, text string) error
	WaitIdle(ctx context.Context) error
	Title(ctx context.Context) (string, error)
	// CookieHeader joins the browser's cookies as "name=value; name=value".
	CookieHeader(ctx context.Context) (string, error)
}

// anonymous pages are titled "WTicket"; every logged-in page carries a
// different title
const anonymousTitle = "WTicket"

// the conflict-resolution controls of the duplicate-session dialog.
// the second control really is clicked twice; that is what the target
// UI takes to get past its confirmation step, observed behavior,
// not a typo.
var recoveryClicks = []string{
	"#remove_session_0",
	"#remove_session_1",
	"#remove_session_1",
}

type SessionManager struct {
	client  *core.Client
	browser Browser
}

func NewSessionManager(client *core.Client, browser Browser) SessionManager {
	return SessionManager{client: client, browser: browser}
}

func (m SessionManager) indexUrl() string {
	return m.client.BaseUrl.String() + "/jsp/wf/index.jsp"
}

// IsLoggedIn probes the session by navigating to the index page and
// checking its title.
func (m SessionManager) IsLoggedIn(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "IsLoggedIn")
	defer span.End()

	err := m.browser.Navigate(ctx, m.indexUrl())
	if err != nil {
		span.SetStatus(codes.Error, "failed to navigate to index")
		return false, err
	}
	err = m.browser.WaitIdle(ctx)
	if err != nil {
		return false, err
	}
	return m.onAuthenticatedPage(ctx)
}

func (m SessionManager) onAuthenticatedPage(ctx context.Context) (bool, error) {
	title, err := m.browser.Title(ctx)
	if err != nil {
		return false, err
	}
	return title != anonymousTitle, nil
}

// Login fills the login form and clicks through. A failed first
// attempt usually means the single-active-session policy kicked in, so
// the manager resolves the conflict dialog and retries exactly once;
// anything past that is core.ErrLoginFailed.
//
// On success the browser's cookies become the core client's session.
func (m SessionManager) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	err := m.browser.Navigate(ctx, m.indexUrl())
	if err != nil {
		span.SetStatus(codes.Error, "failed to navigate to login page")
		return err
	}
	err = m.browser.WaitIdle(ctx)
	if err != nil {
		return err
	}

	err = m.browser.Fill(ctx, "#username", username)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fill username")
		return err
	}
	err = m.browser.Fill(ctx, "#password", password)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fill password")
		return err
	}

	err = m.clickLogin(ctx)
	if err != nil {
		return err
	}

	loggedIn, err := m.onAuthenticatedPage(ctx)
	if err != nil {
		return err
	}
	if !loggedIn {
		span.AddEvent("duplicate session conflict, attempting recovery")
		loggedIn, err = m.recoverDuplicateSession(ctx)
		if err != nil {
			return err
		}
		if !loggedIn {
			span.SetStatus(codes.Error, core.ErrLoginFailed.Error())
			return core.ErrLoginFailed
		}
	}

	cookies, err := m.browser.CookieHeader(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to read browser cookies")
		return err
	}
	m.client.SetCookieHeader(cookies)
	return nil
}

func (m SessionManager) clickLogin(ctx context.Context) error {
	err := m.browser.ClickButton(ctx, "Login")
	if err != nil {
		return fmt.Errorf("failed to click login button: %w", err)
	}
	return m.browser.WaitIdle(ctx)
}

func (m SessionManager) recoverDuplicateSession(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "recoverDuplicateSession")
	defer span.End()

	for _, selector := range recoveryClicks {
		err := m.browser.Click(ctx, selector)
		if err != nil {
			span.SetStatus(codes.Error, "failed to click conflict control")
			return false, fmt.Errorf("failed to click %s: %w", selector, err)
		}
	}

	err := m.clickLogin(ctx)
	if err != nil {
		return false, err
	}
	return m.onAuthenticatedPage(ctx)
}
