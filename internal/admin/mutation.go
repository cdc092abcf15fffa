package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/content"
	"github.com/debemdeboas/folio/internal/model"
)

// MutationResult is the outcome of one create, update or delete.
type MutationResult struct {
	Op     model.ChangeOp
	Kind   model.Kind
	ID     model.RecordID
	Record *model.ContentRecord
	// Redirect is the admin page to show after a success.
	Redirect string
	Err      error
}

func (r *MutationResult) OK() bool {
	return r != nil && r.Err == nil
}

// Change adapts the result for ListView.ApplyMutation.
func (r *MutationResult) Change() Change[model.ContentRecord] {
	return Change[model.ContentRecord]{Op: r.Op, ID: string(r.ID), Item: r.Record, Err: r.Err}
}

// MutationClient sends one mutation at a time. Use one client per form so a second
// submit of the same draft is refused while the first is pending.
type MutationClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	notifier   Notifier

	busy atomic.Bool
}

func NewMutationClient(baseURL string, httpClient *http.Client, notifier Notifier) *MutationClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &MutationClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		notifier:   notifier,
	}
}

func (c *MutationClient) WithToken(token string) *MutationClient {
	c.token = token
	return c
}

// Busy reports whether a submission is in flight. Controls that submit should be
// disabled while it is set.
func (c *MutationClient) Busy() bool {
	return c.busy.Load()
}

func opFor(method string) model.ChangeOp {
	switch method {
	case http.MethodPost:
		return model.OpCreated
	case http.MethodDelete:
		return model.OpDeleted
	default:
		return model.OpUpdated
	}
}

// parseEndpoint splits "/api/<kind>[/<id>]" and unescapes the id.
func parseEndpoint(endpoint string) (model.Kind, model.RecordID) {
	rest := strings.TrimPrefix(strings.Trim(endpoint, "/"), "api/")
	kind, id, _ := strings.Cut(rest, "/")
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	return model.Kind(kind), model.RecordID(id)
}

// locationID is the record id named by a Location header, absolute or not.
func locationID(location string) model.RecordID {
	if location == "" {
		return ""
	}
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	_, id := parseEndpoint(u.EscapedPath())
	return id
}

// Submit performs exactly one request. sub may be nil for deletes. The returned
// error is ErrBusy when another submission is pending, or a *MutationError; in
// both cases the caller's draft is untouched.
func (c *MutationClient) Submit(ctx context.Context, sub Submission, endpoint, method string) (*MutationResult, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.busy.Store(false)

	kind, id := parseEndpoint(endpoint)
	result := &MutationResult{Op: opFor(method), Kind: kind, ID: id}

	singular := "Record"
	if schema, ok := content.Lookup(kind); ok {
		singular = schema.Singular
		result.Redirect = schema.AdminPath()
	}

	record, location, err := c.do(ctx, sub, endpoint, method)
	if err != nil {
		result.Err = err
		c.notifier.Notify(Notification{Level: LevelError, Message: err.Error()})
		adminLogger.Warn().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("Mutation failed")
		return result, err
	}

	if record == nil && sub != nil {
		// Nothing came back: echo what was sent.
		if created := locationID(location); created != "" {
			id = created
		}
		record = &model.ContentRecord{ID: id, Kind: kind, Fields: sub.Payload().Clone()}
	}
	if record != nil {
		if record.Kind == "" {
			record.Kind = kind
		}
		result.ID = record.ID
	}
	result.Record = record

	c.notifier.Notify(Notification{Level: LevelSuccess, Message: fmt.Sprintf("%s %s", singular, result.Op)})
	return result, nil
}

func (c *MutationClient) do(ctx context.Context, sub Submission, endpoint, method string) (*model.ContentRecord, string, error) {
	var body io.Reader
	var contentType string
	if sub != nil {
		var err error
		body, contentType, err = sub.encode()
		if err != nil {
			return nil, "", &MutationError{Message: config.ErrGenericMutation, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, "", &MutationError{Message: config.ErrGenericMutation, Err: err}
	}
	if contentType != "" {
		req.Header.Set(config.HCType, contentType)
	}
	req.Header.Set(config.HAccept, config.CTypeJSON)
	if c.token != "" {
		req.Header.Set(config.HAuthorization, config.BearerPrefix+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &MutationError{Message: config.ErrGenericMutation, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &MutationError{Status: resp.StatusCode, Message: config.ErrGenericMutation, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &MutationError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}

	location := resp.Header.Get(config.HLocation)
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, location, nil
	}
	var record model.ContentRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, "", &MutationError{Status: resp.StatusCode, Message: config.ErrGenericMutation, Err: err}
	}
	return &record, location, nil
}

// errorMessage reads "error" or "message" from a JSON body, falling back to the
// status text.
func errorMessage(status int, raw []byte) string {
	var body struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		switch e := body.Error.(type) {
		case string:
			if e != "" {
				return e
			}
		case map[string]any:
			if msg, ok := e["message"].(string); ok && msg != "" {
				return msg
			}
		}
		if body.Message != "" {
			return body.Message
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return config.ErrGenericMutation
}
