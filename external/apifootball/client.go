// Package apifootball reads fixtures and final scores from API-Football (v3).
package apifootball

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"github.com/riskibarqy/score-predictor/internal/platform/resilience"
	"github.com/riskibarqy/score-predictor/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL       = "https://v3.football.api-sports.io"
	defaultHost          = "v3.football.api-sports.io"
	defaultLeagueRef     = 179
	defaultLeagueType    = "spl"
	defaultTimeout       = 20 * time.Second
	defaultRatePerMinute = 10
	maxResponseBytes     = 6 << 20

	statusNotStarted = "NS"
	statusFullTime   = "FT"
)

var digitsRegex = regexp.MustCompile(`\d+`)
var errFeedTransient = crerr.New("api-football transient failure")

type Config struct {
	BaseURL        string
	Key            string
	Host           string
	LeagueRef      int
	Season         int
	LeagueType     string
	Timeout        time.Duration
	MaxRetries     int
	RatePerMinute  int
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client implements usecase.FootballFeed.
type Client struct {
	httpClient *fasthttp.Client
	baseURL    string
	key        string
	host       string
	leagueRef  int
	season     int
	leagueType string
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
	breaker    *resilience.CircuitBreaker
	flight     singleflight.Group
	logger     *logging.Logger
	backoff    func(attempt int) time.Duration
}

// NewClient builds a feed client. A nil httpClient gets a default fasthttp client.
func NewClient(httpClient *fasthttp.Client, cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                "score-predictor",
			MaxResponseBodySize: maxResponseBytes,
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.LeagueRef <= 0 {
		cfg.LeagueRef = defaultLeagueRef
	}
	if cfg.Season <= 0 {
		cfg.Season = time.Now().Year()
	}
	if strings.TrimSpace(cfg.LeagueType) == "" {
		cfg.LeagueType = defaultLeagueType
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = defaultRatePerMinute
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultHost
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		key:        strings.TrimSpace(cfg.Key),
		host:       host,
		leagueRef:  cfg.LeagueRef,
		season:     cfg.Season,
		leagueType: strings.ToLower(strings.TrimSpace(cfg.LeagueType)),
		timeout:    cfg.Timeout,
		maxRetries: max(cfg.MaxRetries, 0),
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1),
		breaker:    resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		logger:     logger.Named("apifootball"),
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt+1) * time.Second
		},
	}
}

func (c *Client) FetchUpcomingFixtures(ctx context.Context) ([]usecase.ExternalFixture, error) {
	items, err := c.fetchFixtures(ctx, map[string]string{"status": statusNotStarted})
	if err != nil {
		return nil, fmt.Errorf("fetch upcoming fixtures league=%d season=%d: %w", c.leagueRef, c.season, err)
	}
	return items, nil
}

func (c *Client) FetchFinishedFixtures(ctx context.Context) ([]usecase.ExternalFixture, error) {
	items, err := c.fetchFixtures(ctx, map[string]string{"status": statusFullTime})
	if err != nil {
		return nil, fmt.Errorf("fetch finished fixtures league=%d season=%d: %w", c.leagueRef, c.season, err)
	}
	return items, nil
}

func (c *Client) FetchFixture(ctx context.Context, externalID string) (usecase.ExternalFixture, bool, error) {
	externalID = strings.TrimSpace(externalID)
	if _, err := strconv.ParseInt(externalID, 10, 64); err != nil {
		return usecase.ExternalFixture{}, false, fmt.Errorf("%w: fixture id must be numeric", usecase.ErrInvalidInput)
	}

	var envelope fixturesEnvelope
	if err := c.doJSON(ctx, "/fixtures", []queryParam{{"id", externalID}}, &envelope); err != nil {
		return usecase.ExternalFixture{}, false, fmt.Errorf("fetch fixture id=%s: %w", externalID, err)
	}
	for _, item := range envelope.Response {
		if strconv.FormatInt(item.Fixture.ID, 10) == externalID {
			return c.mapFixture(ctx, item), true, nil
		}
	}
	return usecase.ExternalFixture{}, false, nil
}

func (c *Client) fetchFixtures(ctx context.Context, extra map[string]string) ([]usecase.ExternalFixture, error) {
	params := []queryParam{
		{"league", strconv.Itoa(c.leagueRef)},
		{"season", strconv.Itoa(c.season)},
	}
	for key, value := range extra {
		params = append(params, queryParam{key, value})
	}

	var envelope fixturesEnvelope
	if err := c.doJSON(ctx, "/fixtures", params, &envelope); err != nil {
		return nil, err
	}

	out := make([]usecase.ExternalFixture, 0, len(envelope.Response))
	for _, item := range envelope.Response {
		if item.Fixture.ID <= 0 {
			continue
		}
		out = append(out, c.mapFixture(ctx, item))
	}
	return out, nil
}

func (c *Client) mapFixture(ctx context.Context, item fixtureItem) usecase.ExternalFixture {
	gameweek, ok := parseGameweek(item.League.Round)
	if !ok {
		c.logger.WarnContext(ctx, "round has no gameweek number, defaulting to 1",
			"fixture_id", item.Fixture.ID,
			"round", item.League.Round,
		)
	}

	out := usecase.ExternalFixture{
		ExternalID: item.Fixture.ID,
		LeagueType: c.leagueType,
		Gameweek:   gameweek,
		HomeTeam:   strings.TrimSpace(item.Teams.Home.Name),
		AwayTeam:   strings.TrimSpace(item.Teams.Away.Name),
		Status:     strings.ToUpper(strings.TrimSpace(item.Fixture.Status.Short)),
		HomeGoals:  item.Goals.Home,
		AwayGoals:  item.Goals.Away,
	}
	if kickoff, err := time.Parse(time.RFC3339, item.Fixture.Date); err == nil {
		out.KickoffAt = kickoff.UTC()
	} else {
		c.logger.WarnContext(ctx, "unparseable fixture date", "fixture_id", item.Fixture.ID, "date", item.Fixture.Date)
	}
	return out
}

type queryParam struct {
	key   string
	value string
}

func (c *Client) buildURI(path string, params []queryParam) string {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	for _, p := range params {
		args.Add(p.key, p.value)
	}
	args.Sort(bytes.Compare)

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.WriteString(c.baseURL)
	_, _ = buf.WriteString(path)
	if args.Len() > 0 {
		_ = buf.WriteByte('?')
		buf.B = args.AppendBytes(buf.B)
	}
	return buf.String()
}

func (c *Client) doJSON(ctx context.Context, path string, params []queryParam, target any) error {
	uri := c.buildURI(path, params)

	out, err, _ := c.flight.Do(uri, func() (any, error) {
		var raw []byte
		err := c.breaker.Execute(func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(ctx, uri)
			return reqErr
		}, isCircuitFailure)
		return raw, err
	})
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "api-football circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: football feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		if isCircuitFailure(err) {
			return fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}
	if envelope, ok := target.(*fixturesEnvelope); ok && envelope.hasErrors() {
		return fmt.Errorf("feed rejected request: %s", c.redact(envelope.errorText()))
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, uri string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}

		raw, status, err := c.get(ctx, uri)
		switch {
		case err != nil:
			lastErr = crerr.Mark(crerr.Newf("send request: %s", c.redact(err.Error())), errFeedTransient)
		case status >= 200 && status < 300:
			return raw, nil
		case isRetryableStatus(status):
			lastErr = crerr.Mark(crerr.Newf("feed status=%d body=%s", status, abbreviateBody(raw)), errFeedTransient)
		default:
			return nil, fmt.Errorf("feed status=%d body=%s", status, abbreviateBody(raw))
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(c.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "api-football request failed", "uri", uri, "error", lastErr)
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, uri string) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.key)
	req.Header.Set("X-RapidAPI-Host", c.host)

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.httpClient.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, err
	}

	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}

func (c *Client) redact(value string) string {
	if c.key == "" {
		return value
	}
	return strings.ReplaceAll(value, c.key, "REDACTED")
}

// parseGameweek takes the first integer in a round label such as
// "Regular Season - 12". Labels without a number yield 1 and false.
func parseGameweek(round string) (int, bool) {
	match := digitsRegex.FindString(round)
	if match == "" {
		return 1, false
	}
	value, err := strconv.Atoi(match)
	if err != nil || value <= 0 {
		return 1, false
	}
	return value, true
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errFeedTransient)
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusTooManyRequests || code >= fasthttp.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 256 {
		return text[:256] + "..."
	}
	return text
}
