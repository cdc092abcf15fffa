package admin

import (
	"context"
	"net/http"
	"net/url"

	"github.com/debemdeboas/folio/internal/content"
	"github.com/debemdeboas/folio/internal/model"
)

// Resource is the admin screen of one content kind: its list, its mutation client
// and its delete gate, configured by the kind's schema.
type Resource struct {
	Schema    *content.Schema
	List      *ListView[model.ContentRecord]
	Mutations *MutationClient
	Gate      *ConfirmationGate

	api *APIClient
}

func NewResource(schema *content.Schema, api *APIClient, mutations *MutationClient, query url.Values) *Resource {
	r := &Resource{
		Schema:    schema,
		List:      NewListView(api.Fetcher(schema.Kind, query)),
		Mutations: mutations,
		api:       api,
	}
	r.Gate = NewConfirmationGate(r.delete)
	return r
}

func (r *Resource) Get(ctx context.Context, id model.RecordID) (*model.ContentRecord, error) {
	return r.api.Get(ctx, r.Schema.Kind, id)
}

// NewForm starts a create draft, or an edit draft of initial.
func (r *Resource) NewForm(initial *model.ContentRecord) *Form {
	return NewForm(r.Schema, initial)
}

// Save submits the form and reconciles the list with the result. Validation and
// in-flight upload failures are returned before any request is made.
func (r *Resource) Save(ctx context.Context, form *Form, stager *ImageStager) (*MutationResult, error) {
	sub, err := form.Submission(stager)
	if err != nil {
		return nil, err
	}
	return r.submit(ctx, sub, form.Endpoint(), form.Method())
}

// Replace submits the whole draft with PUT, dropping fields it does not carry.
func (r *Resource) Replace(ctx context.Context, form *Form, stager *ImageStager) (*MutationResult, error) {
	sub, err := form.Submission(stager)
	if err != nil {
		return nil, err
	}
	return r.submit(ctx, sub, form.Endpoint(), http.MethodPut)
}

func (r *Resource) submit(ctx context.Context, sub Submission, endpoint, method string) (*MutationResult, error) {
	res, err := r.Mutations.Submit(ctx, sub, endpoint, method)
	if err != nil {
		return res, err
	}
	r.List.ApplyMutation(res.Change())
	return res, nil
}

// RequestDelete opens the gate for id; nothing is sent until ConfirmDelete.
func (r *Resource) RequestDelete(id model.RecordID) {
	r.Gate.Request(string(id))
}

func (r *Resource) CancelDelete() {
	r.Gate.Cancel()
}

func (r *Resource) ConfirmDelete(ctx context.Context) error {
	return r.Gate.Confirm(ctx)
}

func (r *Resource) delete(ctx context.Context, id string) error {
	_, err := r.submit(ctx, nil, r.Schema.Endpoint()+"/"+url.PathEscape(id), http.MethodDelete)
	return err
}
