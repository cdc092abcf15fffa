package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/content"
	"github.com/debemdeboas/folio/internal/imagehost"
	"github.com/debemdeboas/folio/internal/model"
)

func schema(t *testing.T, kind model.Kind) *content.Schema {
	t.Helper()
	s, ok := content.Lookup(kind)
	if !ok {
		t.Fatalf("Expected schema for %s", kind)
	}
	return s
}

func pngData(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

type notes struct {
	mu  sync.Mutex
	all []Notification
}

func (n *notes) Notify(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.all = append(n.all, note)
}

func (n *notes) last() Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.all) == 0 {
		return Notification{}
	}
	return n.all[len(n.all)-1]
}

// fakeAPI is a minimal in-memory collection server counting requests per method.
type fakeAPI struct {
	mu       sync.Mutex
	records  []model.ContentRecord
	requests map[string]int
	lastCT   string
	fail     int
	nextID   int
}

func newFakeAPI(records ...model.ContentRecord) *fakeAPI {
	return &fakeAPI{records: records, requests: map[string]int{}}
}

func (f *fakeAPI) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[method]
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[r.Method]++
	f.lastCT = r.Header.Get(config.HCType)

	if f.fail != 0 {
		w.Header().Set(config.HCType, config.CTypeJSON)
		w.WriteHeader(f.fail)
		w.Write([]byte(`{"error":"title already taken"}`))
		return
	}

	kind, id := parseEndpoint(r.URL.Path)
	switch r.Method {
	case http.MethodGet:
		json.NewEncoder(w).Encode(map[string][]model.ContentRecord{string(kind): f.records})
	case http.MethodPost:
		var fields model.Fields
		if strings.HasPrefix(f.lastCT, config.CTypeMultipart) {
			json.Unmarshal([]byte(r.FormValue(config.PartPayload)), &fields)
		} else {
			json.NewDecoder(r.Body).Decode(&fields)
		}
		f.nextID++
		rec := model.ContentRecord{ID: model.RecordID("new-" + string(rune('0'+f.nextID))), Kind: kind, Fields: fields}
		f.records = append(f.records, rec)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(rec)
	case http.MethodDelete:
		for i, rec := range f.records {
			if rec.ID == id {
				f.records = append(f.records[:i], f.records[i+1:]...)
				break
			}
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func project(id, title, category string) model.ContentRecord {
	return model.ContentRecord{
		ID:     model.RecordID(id),
		Kind:   content.Projects,
		Fields: model.Fields{"title": title, "slug": id, "description": "A long enough description", "category": category},
	}
}

func newTestResource(t *testing.T, api *fakeAPI, n Notifier) (*Resource, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	client := NewAPIClient(srv.URL, srv.Client())
	mutations := NewMutationClient(srv.URL, srv.Client(), n)
	return NewResource(schema(t, content.Projects), client, mutations, nil), srv
}

func fillProject(form *Form) {
	form.SetField("title", "My App")
	form.SetField("description", "An app with a long description")
}

func TestValidationGating(t *testing.T) {
	testCases := []struct {
		name   string
		fields model.Fields
		want   []string
	}{
		{
			name:   "missing title",
			fields: model.Fields{"description": "A long enough description"},
			want:   []string{"title is required", "slug is required"},
		},
		{
			name:   "short description",
			fields: model.Fields{"title": "My App", "description": "short"},
			want:   []string{"description must be at least 10 characters"},
		},
		{
			name:   "bad url",
			fields: model.Fields{"title": "My App", "description": "A long enough description", "githubUrl": "nope"},
			want:   []string{"githubUrl must be a valid URL"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := newFakeAPI()
			res, _ := newTestResource(t, api, nil)

			form := res.NewForm(nil)
			for name, v := range tc.fields {
				form.SetField(name, v)
			}

			var got []string
			for _, v := range form.Validate() {
				got = append(got, v.Message)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Unexpected violations (-want +got):\n%s", diff)
			}

			_, err := res.Save(context.Background(), form, nil)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if api.count(http.MethodPost) != 0 {
				t.Error("Expected no request for an invalid draft")
			}
		})
	}
}

func TestDerivedSlugNotClobbered(t *testing.T) {
	form := NewForm(schema(t, content.Projects), nil)

	form.SetField("title", "My App")
	if got := form.Get("slug"); got != "my-app" {
		t.Fatalf("Expected slug to follow title, got %v", got)
	}

	form.SetField("title", "My App Two")
	if got := form.Get("slug"); got != "my-app-two" {
		t.Fatalf("Expected slug to keep following title, got %v", got)
	}

	form.SetField("slug", "custom")
	form.SetField("title", "Renamed")
	if got := form.Get("slug"); got != "custom" {
		t.Errorf("Expected user slug to be kept, got %v", got)
	}
}

func TestDerivedSlugOnlyOnCreate(t *testing.T) {
	rec := project("p1", "Old", "web")
	form := NewForm(schema(t, content.Projects), &rec)

	form.SetField("title", "New Title")
	if got := form.Get("slug"); got != "p1" {
		t.Errorf("Expected edit draft slug to stay, got %v", got)
	}
	if form.Method() != http.MethodPatch || form.Endpoint() != "/api/projects/p1" {
		t.Errorf("Expected PATCH /api/projects/p1, got %s %s", form.Method(), form.Endpoint())
	}
}

func TestEditDraftIsACopy(t *testing.T) {
	rec := project("p1", "Old", "web")
	rec.ImageURL = "https://img.example/p1.png"
	form := NewForm(schema(t, content.Projects), &rec)

	form.SetField("title", "Changed")
	if rec.Fields.String("title") != "Old" {
		t.Error("Expected the record to be untouched by edits")
	}
	if form.Get(model.ImageURLField) != rec.ImageURL {
		t.Errorf("Expected image URL in draft, got %v", form.Get(model.ImageURLField))
	}
}

func TestBusyFlagExclusivity(t *testing.T) {
	release := make(chan struct{})
	arrived := make(chan struct{}, 2)
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		arrived <- struct{}{}
		<-release
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewMutationClient(srv.URL, srv.Client(), nil)
	sub := JSONPayload{Fields: model.Fields{"title": "x"}}

	done := make(chan error, 1)
	go func() {
		_, err := client.Submit(context.Background(), sub, "/api/projects", http.MethodPost)
		done <- err
	}()

	<-arrived
	if !client.Busy() {
		t.Error("Expected client to be busy")
	}
	if _, err := client.Submit(context.Background(), sub, "/api/projects", http.MethodPost); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Expected first submission to succeed, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 request, got %d", calls.Load())
	}
	if client.Busy() {
		t.Error("Expected busy to clear after the response")
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	api := newFakeAPI(project("p1", "One", "web"), project("p2", "Two", "cli"))
	res, _ := newTestResource(t, api, nil)
	ctx := context.Background()

	if err := res.List.Load(ctx); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	if err := res.ConfirmDelete(ctx); !errors.Is(err, ErrGateClosed) {
		t.Errorf("Expected ErrGateClosed, got %v", err)
	}

	res.RequestDelete("p1")
	if res.Gate.State() != GateOpen {
		t.Fatalf("Expected gate to be open, got %s", res.Gate.State())
	}
	res.CancelDelete()
	res.Gate.Dismiss()
	if api.count(http.MethodDelete) != 0 {
		t.Fatal("Expected no delete after cancel")
	}

	res.RequestDelete("p1")
	if err := res.ConfirmDelete(ctx); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}
	if res.Gate.State() != GateClosed {
		t.Error("Expected gate to close after confirm")
	}
	if err := res.ConfirmDelete(ctx); !errors.Is(err, ErrGateClosed) {
		t.Errorf("Expected second confirm to be refused, got %v", err)
	}
	if api.count(http.MethodDelete) != 1 {
		t.Errorf("Expected exactly one delete, got %d", api.count(http.MethodDelete))
	}
}

func TestGateClosesOnFailure(t *testing.T) {
	gate := NewConfirmationGate(func(context.Context, string) error { return errors.New("boom") })
	gate.Request("x")
	if err := gate.Confirm(context.Background()); err == nil {
		t.Error("Expected the action error")
	}
	if gate.State() != GateClosed {
		t.Error("Expected gate to be closed after a failed action")
	}
}

func TestListReconciliationAfterCreate(t *testing.T) {
	api := newFakeAPI(project("p1", "One", "web"), project("p2", "Two", "cli"))
	n := &notes{}
	res, _ := newTestResource(t, api, n)
	ctx := context.Background()

	if err := res.List.Load(ctx); err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	before := res.List.Len()

	form := res.NewForm(nil)
	fillProject(form)
	result, err := res.Save(ctx, form, nil)
	if err != nil {
		t.Fatalf("Expected save to succeed, got %v", err)
	}

	if res.List.Len() != before+1 {
		t.Fatalf("Expected %d records, got %d", before+1, res.List.Len())
	}
	if api.count(http.MethodGet) != 1 {
		t.Errorf("Expected no reload, got %d GETs", api.count(http.MethodGet))
	}
	items := res.List.Items()
	if items[len(items)-1].ID != result.ID {
		t.Errorf("Expected new record %s in list", result.ID)
	}
	if got := n.last(); got.Level != LevelSuccess || got.Message != "Project created" {
		t.Errorf("Expected success toast, got %+v", got)
	}
	if result.Redirect != "/admin/projects" {
		t.Errorf("Expected redirect to /admin/projects, got %q", result.Redirect)
	}
}

func TestListReconciliationAfterDelete(t *testing.T) {
	api := newFakeAPI(project("p1", "One", "web"), project("p2", "Two", "cli"), project("p3", "Three", "web"))
	res, _ := newTestResource(t, api, nil)
	ctx := context.Background()

	res.List.Load(ctx)
	res.RequestDelete("p2")
	if err := res.ConfirmDelete(ctx); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}

	items := res.List.Items()
	if len(items) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(items))
	}
	for _, item := range items {
		if item.ID == "p2" {
			t.Error("Expected p2 to be removed")
		}
	}
}

func TestCreatesWithoutBodyAreAppended(t *testing.T) {
	testCases := []struct {
		name     string
		location func(n int) string
		wantIDs  []model.RecordID
	}{
		{"no location", func(int) string { return "" }, []model.RecordID{"", ""}},
		{"relative location", func(n int) string { return "/api/projects/p" + string(rune('0'+n)) }, []model.RecordID{"p1", "p2"}},
		{"escaped absolute location", func(n int) string {
			return "http://folio.test/api/projects/id%20" + string(rune('0'+n))
		}, []model.RecordID{"id 1", "id 2"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var posts atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					w.Write([]byte(`{"projects":[]}`))
					return
				}
				n := int(posts.Add(1))
				if loc := tc.location(n); loc != "" {
					w.Header().Set(config.HLocation, loc)
				}
				w.WriteHeader(http.StatusCreated)
			}))
			defer srv.Close()

			res := NewResource(schema(t, content.Projects), NewAPIClient(srv.URL, srv.Client()),
				NewMutationClient(srv.URL, srv.Client(), nil), nil)
			ctx := context.Background()
			if err := res.List.Load(ctx); err != nil {
				t.Fatalf("Failed to load: %v", err)
			}

			for i := 0; i < 2; i++ {
				form := res.NewForm(nil)
				fillProject(form)
				if _, err := res.Save(ctx, form, nil); err != nil {
					t.Fatalf("Expected save %d to succeed, got %v", i+1, err)
				}
			}

			items := res.List.Items()
			if len(items) != 2 {
				t.Fatalf("Expected 2 records after 2 creates, got %d", len(items))
			}
			got := []model.RecordID{items[0].ID, items[1].ID}
			if diff := cmp.Diff(tc.wantIDs, got); diff != "" {
				t.Errorf("Unexpected ids (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeleteIDNeedingEscape(t *testing.T) {
	api := newFakeAPI(project("a b", "Spaced", "web"), project("p2", "Two", "cli"))
	res, _ := newTestResource(t, api, nil)
	ctx := context.Background()

	res.List.Load(ctx)
	res.RequestDelete("a b")
	if err := res.ConfirmDelete(ctx); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}

	items := res.List.Items()
	if len(items) != 1 || items[0].ID != "p2" {
		t.Errorf("Expected only p2 to remain, got %+v", items)
	}
	if len(api.records) != 1 {
		t.Errorf("Expected the server to delete the record, got %d left", len(api.records))
	}
}

func TestEndpointsEscapeIDs(t *testing.T) {
	record := project("a b/c", "Odd", "web")
	form := NewForm(schema(t, content.Projects), &record)
	if got := form.Endpoint(); got != "/api/projects/a%20b%2Fc" {
		t.Errorf("Expected escaped endpoint, got %q", got)
	}

	kind, id := parseEndpoint(form.Endpoint())
	if kind != content.Projects || id != "a b/c" {
		t.Errorf("Expected projects/%q, got %s/%q", "a b/c", kind, id)
	}
}

func TestApplyMutationUpdateAndFailure(t *testing.T) {
	view := NewListView(func(context.Context) ([]model.ContentRecord, error) {
		return []model.ContentRecord{project("p1", "One", "web")}, nil
	})
	view.Load(context.Background())

	updated := project("p1", "Updated", "web")
	view.ApplyMutation(Change[model.ContentRecord]{Op: model.OpUpdated, Item: &updated})
	if got := view.Items()[0].Fields.String("title"); got != "Updated" {
		t.Errorf("Expected replaced record, got %q", got)
	}

	view.ApplyMutation(Change[model.ContentRecord]{Op: model.OpDeleted, ID: "p1", Err: errors.New("failed")})
	if view.Len() != 1 {
		t.Error("Expected failed change to be ignored")
	}
}

type failingUploader struct{ calls int }

func (u *failingUploader) Upload(context.Context, string, string, []byte) (*imagehost.UploadResult, error) {
	u.calls++
	return nil, &imagehost.HostError{Status: http.StatusServiceUnavailable, Message: "host down"}
}

type okUploader struct{}

func (okUploader) Upload(context.Context, string, string, []byte) (*imagehost.UploadResult, error) {
	return &imagehost.UploadResult{SecureURL: "https://cdn.example/cover.png"}, nil
}

func TestPreviewIndependentOfUpload(t *testing.T) {
	form := NewForm(schema(t, content.Projects), nil)
	stager := NewImageStager(form, 1<<20)

	img, err := stager.SelectFile(bytes.NewReader(pngData(t)), "cover.png")
	if err != nil {
		t.Fatalf("Expected selection to succeed, got %v", err)
	}
	if !strings.HasPrefix(img.PreviewURI, "data:image/png;base64,") {
		t.Fatalf("Expected data URI preview, got %q", img.PreviewURI)
	}
	preview := stager.Preview()

	uploader := &failingUploader{}
	_, err = stager.UploadNow(context.Background(), uploader)
	var uerr *UploadError
	if !errors.As(err, &uerr) {
		t.Fatalf("Expected UploadError, got %v", err)
	}
	if stager.Preview() != preview {
		t.Error("Expected preview to be unchanged after a failed upload")
	}
	if !form.Draft().IsEmpty(model.ImageURLField) {
		t.Errorf("Expected image field to stay empty, got %v", form.Get(model.ImageURLField))
	}

	// Retrying is allowed.
	stager.UploadNow(context.Background(), uploader)
	if uploader.calls != 2 {
		t.Errorf("Expected retry to reach the uploader, got %d calls", uploader.calls)
	}

	url, err := stager.UploadNow(context.Background(), okUploader{})
	if err != nil {
		t.Fatalf("Expected upload to succeed, got %v", err)
	}
	if form.Get(model.ImageURLField) != url {
		t.Errorf("Expected field to hold %q, got %v", url, form.Get(model.ImageURLField))
	}
	if stager.Pending() != nil {
		t.Error("Expected the uploaded file to no longer be pending")
	}
}

func TestStagerRejectsInvalidFiles(t *testing.T) {
	form := NewForm(schema(t, content.Projects), nil)

	testCases := []struct {
		name     string
		data     []byte
		filename string
		max      int64
		want     error
	}{
		{"not an image", []byte("hello"), "notes.txt", 1 << 20, imagehost.ErrInvalidFileType},
		{"empty", []byte{}, "empty.png", 1 << 20, imagehost.ErrEmptyFile},
		{"too large", pngData(t), "big.png", 10, imagehost.ErrFileTooLarge},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stager := NewImageStager(form, tc.max)
			_, err := stager.SelectFile(bytes.NewReader(tc.data), tc.filename)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
			if stager.Pending() != nil {
				t.Error("Expected nothing staged")
			}
		})
	}
}

func TestStagerClear(t *testing.T) {
	form := NewForm(schema(t, content.Projects), nil)
	form.SetField(model.ImageURLField, "https://cdn.example/old.png")
	stager := NewImageStager(form, 0)
	stager.SelectFile(bytes.NewReader(pngData(t)), "cover.png")

	stager.Clear()
	if stager.Pending() != nil || stager.Preview() != "" {
		t.Error("Expected file and preview to be dropped")
	}
	if !form.Draft().IsEmpty(model.ImageURLField) {
		t.Error("Expected image field to be emptied")
	}
}

type blockingUploader struct {
	started chan struct{}
	release chan struct{}
}

func (u *blockingUploader) Upload(context.Context, string, string, []byte) (*imagehost.UploadResult, error) {
	close(u.started)
	<-u.release
	return &imagehost.UploadResult{SecureURL: "https://cdn.example/x.png"}, nil
}

func TestNoSubmissionDuringUpload(t *testing.T) {
	form := NewForm(schema(t, content.Projects), nil)
	fillProject(form)
	stager := NewImageStager(form, 0)
	stager.SelectFile(bytes.NewReader(pngData(t)), "cover.png")

	up := &blockingUploader{started: make(chan struct{}), release: make(chan struct{})}
	done := make(chan struct{})
	go func() {
		stager.UploadNow(context.Background(), up)
		close(done)
	}()

	<-up.started
	if _, err := form.Submission(stager); !errors.Is(err, ErrUploadInFlight) {
		t.Errorf("Expected ErrUploadInFlight, got %v", err)
	}
	close(up.release)
	<-done

	sub, err := form.Submission(stager)
	if err != nil {
		t.Fatalf("Expected submission after upload, got %v", err)
	}
	if _, ok := sub.(JSONPayload); !ok {
		t.Errorf("Expected JSON payload once the image is hosted, got %T", sub)
	}
}

func TestSubmissionVariant(t *testing.T) {
	form := NewForm(schema(t, content.Projects), nil)
	fillProject(form)
	stager := NewImageStager(form, 0)

	sub, err := form.Submission(stager)
	if err != nil {
		t.Fatalf("Expected submission, got %v", err)
	}
	if _, ok := sub.(JSONPayload); !ok {
		t.Errorf("Expected JSONPayload without a file, got %T", sub)
	}

	stager.SelectFile(bytes.NewReader(pngData(t)), "cover.png")
	sub, _ = form.Submission(stager)
	mp, ok := sub.(MultipartPayload)
	if !ok {
		t.Fatalf("Expected MultipartPayload with a file, got %T", sub)
	}
	if mp.Image.Filename != "cover.png" {
		t.Errorf("Expected staged file in payload, got %q", mp.Image.Filename)
	}
}

func TestMultipartSubmit(t *testing.T) {
	api := newFakeAPI()
	res, _ := newTestResource(t, api, nil)

	form := res.NewForm(nil)
	fillProject(form)
	stager := NewImageStager(form, 0)
	stager.SelectFile(bytes.NewReader(pngData(t)), "cover.png")

	result, err := res.Save(context.Background(), form, stager)
	if err != nil {
		t.Fatalf("Expected save to succeed, got %v", err)
	}
	if !strings.HasPrefix(api.lastCT, config.CTypeMultipart) {
		t.Errorf("Expected multipart request, got %q", api.lastCT)
	}
	if result.Record.Fields.String("slug") != "my-app" {
		t.Errorf("Expected payload fields to reach the server, got %v", result.Record.Fields)
	}
}

func TestMutationErrorMessages(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", http.StatusConflict, `{"error":"title already taken"}`, "title already taken"},
		{"message field", http.StatusBadRequest, `{"message":"bad slug"}`, "bad slug"},
		{"nested error", http.StatusBadRequest, `{"error":{"message":"bad preset"}}`, "bad preset"},
		{"no body", http.StatusBadGateway, ``, "Bad Gateway"},
		{"html body", http.StatusInternalServerError, `<html>oops</html>`, "Internal Server Error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			n := &notes{}
			client := NewMutationClient(srv.URL, srv.Client(), n)
			res, err := client.Submit(context.Background(), JSONPayload{Fields: model.Fields{}}, "/api/projects", http.MethodPost)

			var merr *MutationError
			if !errors.As(err, &merr) {
				t.Fatalf("Expected MutationError, got %v", err)
			}
			if merr.Message != tc.want || merr.Status != tc.status {
				t.Errorf("Expected %d %q, got %d %q", tc.status, tc.want, merr.Status, merr.Message)
			}
			if res.OK() {
				t.Error("Expected failed result")
			}
			if got := n.last(); got.Level != LevelError || got.Message != tc.want {
				t.Errorf("Expected error toast, got %+v", got)
			}
			if client.Busy() {
				t.Error("Expected busy to clear after failure")
			}
		})
	}
}

func TestMutationEchoesPayloadOnEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewMutationClient(srv.URL, srv.Client(), nil)
	fields := model.Fields{"title": "Echo"}
	res, err := client.Submit(context.Background(), JSONPayload{Fields: fields}, "/api/projects/p9", http.MethodPatch)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	want := &model.ContentRecord{ID: "p9", Kind: content.Projects, Fields: fields}
	if diff := cmp.Diff(want, res.Record); diff != "" {
		t.Errorf("Unexpected echoed record (-want +got):\n%s", diff)
	}
	if res.Op != model.OpUpdated {
		t.Errorf("Expected updated op, got %s", res.Op)
	}
}

func TestLocalFilterPurity(t *testing.T) {
	api := newFakeAPI(project("p1", "One", "web"), project("p2", "Two", "cli"), project("p3", "Three", "web"))
	res, _ := newTestResource(t, api, nil)

	res.List.Load(context.Background())
	res.List.Filter(FieldEquals("category", "web"))
	if got := len(res.List.Visible()); got != 2 {
		t.Errorf("Expected 2 web projects, got %d", got)
	}

	res.List.Filter(AllOf(FieldEquals("category", "WEB"), FieldEquals("title", "Three")))
	if got := len(res.List.Visible()); got != 1 {
		t.Errorf("Expected 1 project, got %d", got)
	}

	res.List.Filter(nil)
	if got := len(res.List.Visible()); got != 3 {
		t.Errorf("Expected all projects, got %d", got)
	}
	if api.count(http.MethodGet) != 1 {
		t.Errorf("Expected filtering to make no requests, got %d GETs", api.count(http.MethodGet))
	}
}

func TestLoadErrorAndRetry(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	view := NewListView(func(context.Context) ([]model.ContentRecord, error) {
		if fail.Load() {
			return nil, errors.New("connection refused")
		}
		return []model.ContentRecord{project("p1", "One", "web")}, nil
	})

	err := view.Load(context.Background())
	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("Expected LoadError, got %v", err)
	}
	if !errors.As(view.Err(), &lerr) {
		t.Error("Expected the error state to persist")
	}

	fail.Store(false)
	if err := view.Retry(context.Background()); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if view.Err() != nil || view.Len() != 1 {
		t.Errorf("Expected recovered list, got err=%v len=%d", view.Err(), view.Len())
	}
}

func TestAPIClientListError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"Unauthorized"}`)
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL, srv.Client()).List(context.Background(), content.Messages, nil)
	var merr *MutationError
	if !errors.As(err, &merr) || merr.Status != http.StatusUnauthorized {
		t.Errorf("Expected 401 error, got %v", err)
	}
}
