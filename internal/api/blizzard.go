package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"pvp-tracker/internal/config"
	"pvp-tracker/internal/constants"
	"pvp-tracker/internal/domain"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

// ErrNotFound signals a 404 from the bracket endpoint: the character has no
// data for that bracket this season. Not an error condition for callers.
var ErrNotFound = errors.New("bracket data not found")

type AuthError struct {
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %v", e.Err)
	}
	return fmt.Sprintf("authentication failed: status %d", e.Status)
}

func (e *AuthError) Unwrap() error { return e.Err }

type FetchError struct {
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("bracket fetch failed: status %d", e.Status)
}

type BlizzardClient struct {
	clientID     string
	clientSecret string
	region       string
	realm        string
	character    string
	client       *fasthttp.Client

	tokenMu      sync.Mutex
	token        string
	tokenExpires time.Time
}

func NewBlizzardClient(cfg *config.Config) *BlizzardClient {
	return &BlizzardClient{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		region:       strings.ToLower(cfg.Region),
		realm:        strings.ToLower(cfg.Realm),
		character:    strings.ToLower(cfg.CharacterName),
		client: &fasthttp.Client{
			MaxConnsPerHost:     10,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// Token returns a cached client-credentials bearer token, requesting a new
// one when the cached token is within its expiry margin.
func (c *BlizzardClient) Token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpires) {
		return c.token, nil
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("https://oauth.battle.net/token")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	credentials := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.SetBodyString("grant_type=client_credentials")

	if err := c.do(ctx, req, resp); err != nil {
		return "", &AuthError{Err: err}
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", &AuthError{Status: resp.StatusCode()}
	}

	var body tokenResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", &AuthError{Err: err}
	}
	if body.AccessToken == "" {
		return "", &AuthError{Err: errors.New("token response missing access_token")}
	}

	c.token = body.AccessToken
	c.tokenExpires = time.Now().Add(time.Duration(body.ExpiresIn)*time.Second - constants.TokenExpiryMargin)
	return c.token, nil
}

// FetchBracket fetches the character's current standing in one PvP bracket.
// Returns ErrNotFound on 404 and a FetchError for any other non-200 status.
func (c *BlizzardClient) FetchBracket(ctx context.Context, token, bracket string) (*domain.SnapshotData, error) {
	url := fmt.Sprintf(
		"https://%s.api.blizzard.com/profile/wow/character/%s/%s/pvp-bracket/%s?namespace=profile-%s&locale=en_US",
		c.region, c.realm, c.character, bracket, c.region,
	)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+token)

	if err := c.do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("bracket request failed: %w", err)
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, &FetchError{Status: resp.StatusCode()}
	}

	var body bracketResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to decode bracket response: %w", err)
	}
	return body.toSnapshotData()
}

func (c *BlizzardClient) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return c.client.DoDeadline(req, resp, deadline)
	}
	return c.client.Do(req, resp)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type bracketResponse struct {
	Rating      *int             `json:"rating"`
	SeasonStats *matchStatistics `json:"season_match_statistics"`
	WeeklyStats *matchStatistics `json:"weekly_match_statistics"`
}

type matchStatistics struct {
	Played *int `json:"played"`
	Won    *int `json:"won"`
	Lost   *int `json:"lost"`
}

// toSnapshotData validates the remote shape at the boundary so downstream
// detection never sees a partially populated payload.
func (b *bracketResponse) toSnapshotData() (*domain.SnapshotData, error) {
	if b.Rating == nil {
		return nil, errors.New("bracket response missing rating")
	}
	if b.SeasonStats == nil || b.SeasonStats.incomplete() {
		return nil, errors.New("bracket response missing season match statistics")
	}
	if b.WeeklyStats == nil || b.WeeklyStats.incomplete() {
		return nil, errors.New("bracket response missing weekly match statistics")
	}

	return &domain.SnapshotData{
		Rating:       *b.Rating,
		SeasonPlayed: *b.SeasonStats.Played,
		SeasonWon:    *b.SeasonStats.Won,
		SeasonLost:   *b.SeasonStats.Lost,
		WeeklyPlayed: *b.WeeklyStats.Played,
		WeeklyWon:    *b.WeeklyStats.Won,
		WeeklyLost:   *b.WeeklyStats.Lost,
	}, nil
}

func (m *matchStatistics) incomplete() bool {
	return m.Played == nil || m.Won == nil || m.Lost == nil
}
