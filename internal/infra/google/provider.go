// Package google implements the calendar provider on top of the Google
// Calendar API.
//
// Nothing here holds user credentials between calls. Each method builds an
// oauth2 token source and a calendar service from the TokenPair it is
// given, so concurrent requests for different users never share state.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
	"github.com/BruksfildServices01/calendar-booking/internal/metrics"
)

const (
	opExchange       = "oauth.exchange"
	opCreateCalendar = "calendars.insert"
	opInsertEvent    = "events.insert"
	opDeleteCalendar = "calendars.delete"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Optional overrides, used by tests.
	AuthURL     string
	TokenURL    string
	APIEndpoint string
	HTTPClient  *http.Client

	// Retry policy for event inserts. Zero values pick the defaults.
	MaxTries       uint
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type Provider struct {
	oauth       *oauth2.Config
	apiEndpoint string
	httpClient  *http.Client

	maxTries       uint
	initialBackoff time.Duration
	maxBackoff     time.Duration

	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewProvider(cfg Config, m *metrics.Metrics, logger *slog.Logger) *Provider {
	endpoint := googleoauth.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	p := &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{gcal.CalendarScope},
		},
		apiEndpoint:    cfg.APIEndpoint,
		httpClient:     cfg.HTTPClient,
		maxTries:       cfg.MaxTries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		metrics:        m,
		logger:         logging.WithOperation(logger, "calendar_provider"),
	}

	if p.maxTries == 0 {
		p.maxTries = 4
	}
	if p.initialBackoff <= 0 {
		p.initialBackoff = 200 * time.Millisecond
	}
	if p.maxBackoff <= 0 {
		p.maxBackoff = 5 * time.Second
	}

	return p
}

// AuthCodeURL asks for offline access and forces the consent screen so a
// refresh token is issued.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (p *Provider) Exchange(ctx context.Context, code string) (*calendar.TokenPair, error) {
	tok, err := p.oauth.Exchange(p.clientContext(ctx), code)
	p.metrics.ProviderCall(opExchange, err)
	if err != nil {
		return nil, upstream(opExchange, err)
	}

	return &calendar.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

func (p *Provider) CreateCalendar(
	ctx context.Context,
	tokens *calendar.TokenPair,
	name string,
	timeZone string,
) (string, error) {

	svc, ts, err := p.service(ctx, tokens)
	if err != nil {
		return "", err
	}
	defer syncTokens(ts, tokens)

	created, err := svc.Calendars.Insert(&gcal.Calendar{
		Summary:  name,
		TimeZone: timeZone,
	}).Context(ctx).Do()
	p.metrics.ProviderCall(opCreateCalendar, err)
	if err != nil {
		return "", mapCallError(opCreateCalendar, err)
	}

	return created.Id, nil
}

// DeleteCalendar removes a secondary calendar. A calendar that is already
// gone counts as deleted.
func (p *Provider) DeleteCalendar(
	ctx context.Context,
	tokens *calendar.TokenPair,
	calendarID string,
) error {

	svc, ts, err := p.service(ctx, tokens)
	if err != nil {
		return err
	}
	defer syncTokens(ts, tokens)

	err = svc.Calendars.Delete(calendarID).Context(ctx).Do()
	p.metrics.ProviderCall(opDeleteCalendar, err)
	if err != nil {
		if status := statusOf(err); status == http.StatusNotFound || status == http.StatusGone {
			return nil
		}
		return mapCallError(opDeleteCalendar, err)
	}
	return nil
}

// InsertEvent inserts ev under its own id and retries on throttling and
// server errors. A conflict on a retry means an earlier attempt landed.
func (p *Provider) InsertEvent(
	ctx context.Context,
	tokens *calendar.TokenPair,
	calendarID string,
	ev calendar.EventSpec,
) (string, error) {

	if ev.ID == "" {
		ev.ID = NewEventID()
	}

	svc, ts, err := p.service(ctx, tokens)
	if err != nil {
		return "", err
	}
	defer syncTokens(ts, tokens)

	event := &gcal.Event{
		Id:          ev.ID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
	}

	attempt := 0
	id, err := backoff.Retry(ctx, func() (string, error) {
		attempt++

		created, err := svc.Events.Insert(calendarID, event).Context(ctx).Do()
		p.metrics.ProviderCall(opInsertEvent, err)
		if err == nil {
			return created.Id, nil
		}

		status := statusOf(err)
		if attempt > 1 && status == http.StatusConflict {
			return ev.ID, nil
		}
		if retryable(status) {
			p.logger.Warn("event insert failed, retrying",
				slog.Int("attempt", attempt),
				slog.Int("status", status),
			)
			return "", err
		}
		return "", backoff.Permanent(err)
	},
		backoff.WithBackOff(p.newBackoff()),
		backoff.WithMaxTries(p.maxTries),
	)
	if err != nil {
		return "", mapCallError(opInsertEvent, err)
	}

	return id, nil
}

// NewEventID returns an id Google accepts for client-chosen event ids
// (base32hex characters, 5 to 1024 long).
func NewEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ======================================================
// HELPERS
// ======================================================

func (p *Provider) newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initialBackoff
	b.MaxInterval = p.maxBackoff
	return b
}

// clientContext makes oauth2 use the configured transport.
func (p *Provider) clientContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func (p *Provider) service(
	ctx context.Context,
	tokens *calendar.TokenPair,
) (*gcal.Service, oauth2.TokenSource, error) {

	if !tokens.Complete() {
		return nil, nil, calendar.ErrDelegatedAccessRequired
	}

	cctx := p.clientContext(ctx)
	ts := p.oauth.TokenSource(cctx, &oauth2.Token{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       tokens.Expiry,
	})

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(cctx, ts))}
	if p.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(p.apiEndpoint))
	}

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, ts, nil
}

// syncTokens copies a refreshed access token back into tokens.
func syncTokens(ts oauth2.TokenSource, tokens *calendar.TokenPair) {
	tok, err := ts.Token()
	if err != nil || tok.AccessToken == tokens.AccessToken {
		return
	}
	tokens.AccessToken = tok.AccessToken
	tokens.Expiry = tok.Expiry
	if tok.RefreshToken != "" {
		tokens.RefreshToken = tok.RefreshToken
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func statusOf(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return rerr.Response.StatusCode
	}
	return 0
}

// mapCallError turns a revoked or expired grant into a request to grant
// access again. Everything else is an upstream failure.
func mapCallError(op string, err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.ErrorCode == "invalid_grant" {
		return calendar.ErrDelegatedAccessRequired
	}
	return upstream(op, err)
}

func upstream(op string, err error) error {
	return &calendar.UpstreamError{Op: op, Status: statusOf(err), Err: err}
}

var _ calendar.Provider = (*Provider)(nil)
