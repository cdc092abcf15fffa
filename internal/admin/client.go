package admin

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/debemdeboas/folio/internal/auth"
	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/model"
)

// APIClient performs the read side of the admin panel: collection loads, single
// record reads, change events and login.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *APIClient) WithToken(token string) *APIClient {
	c.token = token
	return c
}

func (c *APIClient) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set(config.HAccept, config.CTypeJSON)
	if c.token != "" {
		req.Header.Set(config.HAuthorization, config.BearerPrefix+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &MutationError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// List fetches the whole collection of kind. query may carry limit, published and
// filter fields.
func (c *APIClient) List(ctx context.Context, kind model.Kind, query url.Values) ([]model.ContentRecord, error) {
	path := "/api/" + string(kind)
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var body map[string][]model.ContentRecord
	if err := c.get(ctx, path, &body); err != nil {
		return nil, err
	}
	records := body[string(kind)]
	if records == nil {
		records = []model.ContentRecord{}
	}
	return records, nil
}

func (c *APIClient) Get(ctx context.Context, kind model.Kind, id model.RecordID) (*model.ContentRecord, error) {
	var record model.ContentRecord
	if err := c.get(ctx, "/api/"+string(kind)+"/"+url.PathEscape(string(id)), &record); err != nil {
		return nil, err
	}
	if record.Kind == "" {
		record.Kind = kind
	}
	return &record, nil
}

// Fetcher adapts List for NewListView.
func (c *APIClient) Fetcher(kind model.Kind, query url.Values) func(ctx context.Context) ([]model.ContentRecord, error) {
	return func(ctx context.Context) ([]model.ContentRecord, error) {
		return c.List(ctx, kind, query)
	}
}

// Events streams change events of kind (every kind when empty) to fn until ctx is
// done or the server closes the stream.
func (c *APIClient) Events(ctx context.Context, kind model.Kind, fn func(model.ChangeEvent)) error {
	target := c.baseURL + "/api/events"
	if kind != "" {
		target += "?resource=" + url.QueryEscape(string(kind))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set(config.HAccept, config.CTypeSSE)
	if c.token != "" {
		req.Header.Set(config.HAuthorization, config.BearerPrefix+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return &MutationError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}

	scanner := bufio.NewScanner(resp.Body)
	event := ""
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && event == "change":
			var change model.ChangeEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &change); err != nil {
				adminLogger.Warn().Err(err).Msg("Ignoring malformed change event")
				continue
			}
			fn(change)
		case line == "":
			event = ""
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}

// Login signs the server's challenge with key and returns the issued session.
func (c *APIClient) Login(ctx context.Context, key ed25519.PrivateKey) (*auth.TokenResponse, error) {
	var challenge auth.ChallengeResponse
	if err := c.get(ctx, "/auth/challenge", &challenge); err != nil {
		return nil, fmt.Errorf("error fetching challenge: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(challenge.Challenge)
	if err != nil {
		return nil, fmt.Errorf("error decoding challenge: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/verify", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(config.HSignature, base64.StdEncoding.EncodeToString(ed25519.Sign(key, raw)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &MutationError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}

	var token auth.TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("error decoding token: %w", err)
	}
	c.token = token.Token
	return &token, nil
}
