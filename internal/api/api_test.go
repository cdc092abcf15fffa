package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/folio/internal/auth"
	"github.com/debemdeboas/folio/internal/auth/testdata"
	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/db"
	"github.com/debemdeboas/folio/internal/imagehost"
	"github.com/debemdeboas/folio/internal/model"
	"github.com/debemdeboas/folio/internal/repository"
	"github.com/debemdeboas/folio/internal/routes"
)

type testEnv struct {
	handler http.Handler
	server  *Server
	repo    repository.RecordRepository
	store   *imagehost.LocalStore
	tokens  *auth.TokenMaker
}

type envOptions struct {
	// ed25519 requires a bearer token instead of treating everyone as admin.
	ed25519 bool
	repo    func(repository.RecordRepository) repository.RecordRepository
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	SetLogger(zerolog.Nop())
	db.SetLogger(zerolog.Nop())
	repository.SetLogger(zerolog.Nop())
	imagehost.SetLogger(zerolog.Nop())
	auth.SetLogger(zerolog.Nop())

	d := db.NewSQLite(":memory:")
	if err := d.InitDb(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	var repo repository.RecordRepository = repository.NewDBRecordRepository(d, nil)
	if opts.repo != nil {
		repo = opts.repo(repo)
	}

	store, err := imagehost.NewLocalStore(t.TempDir(), "http://folio.test")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	tokens := auth.NewTokenMaker(testdata.TestJWTSecret, time.Hour)
	var provider auth.AuthProvider = auth.NewNoAuthProvider(testdata.TestUserID)
	if opts.ed25519 {
		p, err := auth.NewEd25519AuthProvider(testdata.TestPublicKeyPEM, config.HSignature, testdata.TestUserID, tokens)
		if err != nil {
			t.Fatalf("Failed to create provider: %v", err)
		}
		provider = p
	}

	cfg := config.Default()
	cfg.Server.MaxUploadMB = 1

	server := NewServer(cfg, repo, store, provider)
	mux := http.NewServeMux()
	server.Register(mux)

	return &testEnv{
		handler: provider.WithHeaderAuthorization()(mux),
		server:  server,
		repo:    repo,
		store:   store,
		tokens:  tokens,
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(method, target string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set(config.HCType, config.CTypeJSON)
	return req
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func multipartRequest(t *testing.T, method, target string, payload model.Fields, imageName string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	data, _ := json.Marshal(payload)
	if err := mw.WriteField(config.PartPayload, string(data)); err != nil {
		t.Fatalf("Failed to write payload: %v", err)
	}
	if image != nil {
		part, err := mw.CreatePart(imagehost.FilePartHeader(config.PartImage, imageName, "image/png"))
		if err != nil {
			t.Fatalf("Failed to create image part: %v", err)
		}
		part.Write(image)
	}
	mw.Close()

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(config.HCType, mw.FormDataContentType())
	return req
}

func validProject() model.Fields {
	return model.Fields{
		"title":       "Folio Admin",
		"description": "An admin panel for a portfolio",
		"techStack":   []string{"go"},
	}
}

func storedFiles(t *testing.T, store *imagehost.LocalStore) int {
	t.Helper()
	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("Failed to read store: %v", err)
	}
	return len(entries)
}

func TestCreateAndGet(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rr := env.do(t, jsonRequest(http.MethodPost, "/api/projects", validProject()))
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[model.ContentRecord](t, rr)
	if created.ID == "" {
		t.Fatal("Expected an id to be assigned")
	}
	if got := created.Fields.String("slug"); got != "folio-admin" {
		t.Errorf("Expected slug derived server side, got %q", got)
	}
	if loc := rr.Header().Get(config.HLocation); loc != "/api/projects/"+string(created.ID) {
		t.Errorf("Expected Location header, got %q", loc)
	}

	rr = env.do(t, httptest.NewRequest(http.MethodGet, "/api/projects/"+string(created.ID), nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	got := decode[model.ContentRecord](t, rr)
	if got.Fields.String("title") != "Folio Admin" {
		t.Errorf("Expected title to round trip, got %q", got.Fields.String("title"))
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	draft := validProject()
	draft["description"] = "short"
	draft["githubUrl"] = "not a url"

	rr := env.do(t, jsonRequest(http.MethodPost, "/api/projects", draft))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decode[ValidationErrorBody](t, rr)
	if !strings.Contains(body.Error, "description must be at least 10 characters") {
		t.Errorf("Expected description violation in error, got %q", body.Error)
	}
	if len(body.Violations) != 2 {
		t.Errorf("Expected 2 violations, got %v", body.Violations)
	}

	records, err := env.repo.List(context.Background(), "projects", repository.ListOptions{})
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected nothing stored, got %d records", len(records))
	}
}

func TestListAfterCreateIncludesRecord(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	// Warm the list cache first.
	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if list := decode[map[string][]model.ContentRecord](t, rr)["projects"]; len(list) != 0 {
		t.Fatalf("Expected empty list, got %d", len(list))
	}

	env.do(t, jsonRequest(http.MethodPost, "/api/projects", validProject()))

	rr = env.do(t, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	list := decode[map[string][]model.ContentRecord](t, rr)["projects"]
	if len(list) != 1 {
		t.Fatalf("Expected the new record in the list, got %d", len(list))
	}
}

func TestListQuery(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	for i, published := range []bool{true, false, true} {
		draft := model.Fields{
			"title":     "Post number " + string(rune('a'+i)),
			"excerpt":   "An excerpt long enough",
			"content":   "Body",
			"category":  "go",
			"published": published,
		}
		if rr := env.do(t, jsonRequest(http.MethodPost, "/api/blogs", draft)); rr.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}
	}

	testCases := []struct {
		query string
		want  int
		code  int
	}{
		{"", 3, http.StatusOK},
		{"?published=true", 2, http.StatusOK},
		{"?published=false", 1, http.StatusOK},
		{"?limit=1", 1, http.StatusOK},
		{"?category=GO", 3, http.StatusOK},
		{"?category=rust", 0, http.StatusOK},
		{"?limit=-1", 0, http.StatusBadRequest},
		{"?published=maybe", 0, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/blogs"+tc.query, nil))
			if rr.Code != tc.code {
				t.Fatalf("Expected status %d, got %d", tc.code, rr.Code)
			}
			if tc.code != http.StatusOK {
				return
			}
			if got := len(decode[map[string][]model.ContentRecord](t, rr)["blogs"]); got != tc.want {
				t.Errorf("Expected %d records, got %d", tc.want, got)
			}
		})
	}
}

func TestPublishedIgnoredWithoutField(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	draft := model.Fields{"title": "Folio", "description": "A portfolio admin panel"}
	if rr := env.do(t, jsonRequest(http.MethodPost, "/api/projects", draft)); rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	for _, query := range []string{"?published=true", "?published=false", "?published=maybe"} {
		rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/projects"+query, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200 for %s, got %d", query, rr.Code)
		}
		if got := len(decode[map[string][]model.ContentRecord](t, rr)["projects"]); got != 1 {
			t.Errorf("Expected the project for %s, got %d records", query, got)
		}
	}
}

func TestUpdatePatchAndPut(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rr := env.do(t, jsonRequest(http.MethodPost, "/api/projects", validProject()))
	created := decode[model.ContentRecord](t, rr)
	target := "/api/projects/" + string(created.ID)

	rr = env.do(t, jsonRequest(http.MethodPatch, target, model.Fields{"featured": true}))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	patched := decode[model.ContentRecord](t, rr)
	if !patched.Fields.Bool("featured") || patched.Fields.String("title") != "Folio Admin" {
		t.Errorf("Expected merged fields, got %v", patched.Fields)
	}

	replacement := model.Fields{"title": "Renamed", "slug": "renamed", "description": "A replacement description"}
	rr = env.do(t, jsonRequest(http.MethodPut, target, replacement))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	replaced := decode[model.ContentRecord](t, rr)
	if _, ok := replaced.Fields["featured"]; ok {
		t.Errorf("Expected PUT to drop unspecified fields, got %v", replaced.Fields)
	}

	rr = env.do(t, jsonRequest(http.MethodPatch, target, model.Fields{"slug": "Not A Slug"}))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", rr.Code)
	}

	rr = env.do(t, jsonRequest(http.MethodPatch, "/api/projects/missing", model.Fields{}))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	req := multipartRequest(t, http.MethodPost, "/api/projects", validProject(), "cover.png", pngBytes(t))
	created := decode[model.ContentRecord](t, env.do(t, req))
	if storedFiles(t, env.store) != 1 {
		t.Fatal("Expected the image to be stored")
	}

	rr := env.do(t, httptest.NewRequest(http.MethodDelete, "/api/projects/"+string(created.ID), nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rr.Code)
	}
	if storedFiles(t, env.store) != 0 {
		t.Error("Expected the image to be deleted with its record")
	}

	rr = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/projects/"+string(created.ID), nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", rr.Code)
	}
}

func TestMultipartCreateStoresImage(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	req := multipartRequest(t, http.MethodPost, "/api/projects", validProject(), "cover.png", pngBytes(t))
	rr := env.do(t, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[model.ContentRecord](t, rr)
	if !strings.HasPrefix(created.ImageURL, "http://folio.test/uploads/") {
		t.Errorf("Expected stored image URL, got %q", created.ImageURL)
	}
	if _, ok := created.Fields[model.ImageURLField]; ok {
		t.Error("Expected image URL to be lifted out of fields")
	}
}

func TestMultipartCreateRejectsNonImage(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	req := multipartRequest(t, http.MethodPost, "/api/projects", validProject(), "notes.txt", []byte("plain text"))
	rr := env.do(t, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
	if body := decode[routes.ErrorBody](t, rr); body.Error != imagehost.ErrInvalidFileType.Error() {
		t.Errorf("Expected invalid file type error, got %q", body.Error)
	}
}

type failingCreate struct {
	repository.RecordRepository
}

func (failingCreate) Create(context.Context, *model.ContentRecord) error {
	return errors.New("disk full")
}

func TestFailedSaveLeavesNoImage(t *testing.T) {
	env := newTestEnv(t, envOptions{repo: func(r repository.RecordRepository) repository.RecordRepository {
		return failingCreate{r}
	}})

	req := multipartRequest(t, http.MethodPost, "/api/projects", validProject(), "cover.png", pngBytes(t))
	rr := env.do(t, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rr.Code)
	}
	if n := storedFiles(t, env.store); n != 0 {
		t.Errorf("Expected no stored image after failed save, got %d", n)
	}
}

func TestUnknownResourceAndMethod(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/api/widgets", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
	if body := decode[routes.ErrorBody](t, rr); body.Error != config.ErrUnknownResource {
		t.Errorf("Expected unknown resource error, got %q", body.Error)
	}

	rr = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/projects", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t, envOptions{ed25519: true})

	valid, _, err := env.tokens.Issue(testdata.TestUserID)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	expired, _, _ := auth.NewTokenMaker(testdata.TestJWTSecret, -time.Minute).Issue(testdata.TestUserID)
	forged, _, _ := auth.NewTokenMaker("another-secret", time.Hour).Issue(testdata.TestUserID)

	message := model.Fields{
		"name":    "Visitor",
		"email":   "visitor@example.com",
		"subject": "Hello",
		"message": "I liked your portfolio a lot",
	}

	testCases := []struct {
		name   string
		method string
		target string
		body   model.Fields
		token  string
		want   int
	}{
		{"anonymous project create", http.MethodPost, "/api/projects", validProject(), "", http.StatusUnauthorized},
		{"expired token", http.MethodPost, "/api/projects", validProject(), expired, http.StatusUnauthorized},
		{"forged token", http.MethodPost, "/api/projects", validProject(), forged, http.StatusUnauthorized},
		{"valid token", http.MethodPost, "/api/projects", validProject(), valid, http.StatusCreated},
		{"anonymous message", http.MethodPost, "/api/messages", message, "", http.StatusCreated},
		{"anonymous message list", http.MethodGet, "/api/messages", nil, "", http.StatusUnauthorized},
		{"admin message list", http.MethodGet, "/api/messages", nil, valid, http.StatusOK},
		{"anonymous project list", http.MethodGet, "/api/projects", nil, "", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := jsonRequest(tc.method, tc.target, tc.body)
			if tc.body == nil {
				req = httptest.NewRequest(tc.method, tc.target, nil)
			}
			if tc.token != "" {
				req.Header.Set(config.HAuthorization, config.BearerPrefix+tc.token)
			}
			rr := env.do(t, req)
			if rr.Code != tc.want {
				t.Errorf("Expected status %d, got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestMessageDefaults(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rr := env.do(t, jsonRequest(http.MethodPost, "/api/messages", model.Fields{
		"name":    "Visitor",
		"email":   "visitor@example.com",
		"subject": "Hello",
		"message": "I liked your portfolio a lot",
	}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[model.ContentRecord](t, rr)
	if read, ok := created.Fields["read"].(bool); !ok || read {
		t.Errorf("Expected read to default to false, got %v", created.Fields["read"])
	}
}

func imageUploadRequest(t *testing.T, preset, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField(config.PartUploadPreset, preset)
	if data != nil {
		part, _ := mw.CreatePart(imagehost.FilePartHeader(config.PartFile, filename, "image/png"))
		part.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/images", &body)
	req.Header.Set(config.HCType, mw.FormDataContentType())
	return req
}

func TestImageUpload(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	testCases := []struct {
		name    string
		preset  string
		file    []byte
		want    int
		message string
	}{
		{"valid upload", "folio", pngBytes(t), http.StatusOK, ""},
		{"wrong preset", "other", pngBytes(t), http.StatusBadRequest, config.ErrInvalidPreset},
		{"missing file", "folio", nil, http.StatusBadRequest, config.ErrMissingFile},
		{"empty file", "folio", []byte{}, http.StatusBadRequest, imagehost.ErrEmptyFile.Error()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, imageUploadRequest(t, tc.preset, "cover.png", tc.file))
			if rr.Code != tc.want {
				t.Fatalf("Expected status %d, got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
			if tc.want != http.StatusOK {
				body := decode[imagehost.ErrorBody](t, rr)
				if body.Error.Message != tc.message {
					t.Errorf("Expected message %q, got %q", tc.message, body.Error.Message)
				}
				return
			}
			result := decode[imagehost.UploadResult](t, rr)
			if !strings.HasPrefix(result.SecureURL, "http://folio.test/uploads/") {
				t.Errorf("Expected stored URL, got %q", result.SecureURL)
			}
			if result.Width != 4 || result.Height != 3 {
				t.Errorf("Expected 4x3 dimensions, got %dx%d", result.Width, result.Height)
			}
			if result.Format != "png" {
				t.Errorf("Expected png format, got %q", result.Format)
			}
		})
	}
}

func TestImageUploadRequiresSession(t *testing.T) {
	env := newTestEnv(t, envOptions{ed25519: true})

	rr := env.do(t, imageUploadRequest(t, "folio", "cover.png", pngBytes(t)))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", rr.Code)
	}
	if body := decode[imagehost.ErrorBody](t, rr); body.Error.Message != config.ErrUnauthorized {
		t.Errorf("Expected unauthorized message, got %q", body.Error.Message)
	}
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rr := env.do(t, jsonRequest(http.MethodPost, "/api/blogs/preview", PreviewRequest{Content: "# Hello\n\n```go\nx := 1\n```\n"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get(config.HCType); ct != config.CTypeHTML {
		t.Errorf("Expected HTML content type, got %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "Hello") || !strings.Contains(rr.Body.String(), "highlight") {
		t.Errorf("Expected rendered markdown, got %q", rr.Body.String())
	}
}

func TestSyntaxCSS(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/syntax/monokai", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if rr.Header().Get(config.HETag) == "" {
		t.Error("Expected an ETag")
	}

	rr = env.do(t, httptest.NewRequest(http.MethodGet, "/syntax/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rr := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events?resource=projects", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readData := func() string {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("Failed to read stream: %v", err)
			}
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				return strings.TrimSpace(data)
			}
		}
	}

	if got := readData(); got != "SSE connection established" {
		t.Fatalf("Expected connection message, got %q", got)
	}

	// Events for other kinds are filtered out.
	env.server.Notify(model.ChangeEvent{Op: model.OpCreated, Kind: "blogs", ID: "b1"})
	env.do(t, jsonRequest(http.MethodPost, "/api/projects", validProject()))

	var event model.ChangeEvent
	if err := json.Unmarshal([]byte(readData()), &event); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}
	if event.Op != model.OpCreated || event.Kind != "projects" {
		t.Errorf("Expected projects created event, got %+v", event)
	}
}
