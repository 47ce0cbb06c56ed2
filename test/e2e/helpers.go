//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/aliasgen/internal/api/handlers"
	"github.com/cloo-solutions/aliasgen/internal/config"
	"github.com/cloo-solutions/aliasgen/internal/host"
	"github.com/cloo-solutions/aliasgen/internal/openai"
	"github.com/cloo-solutions/aliasgen/internal/repository"
	"github.com/cloo-solutions/aliasgen/internal/server"
	"github.com/cloo-solutions/aliasgen/internal/service"
	"github.com/cloo-solutions/aliasgen/internal/storage"
	"github.com/cloo-solutions/aliasgen/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const serverToken = "e2e-token"

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	RustFSC    *testutil.RustFSContainer
	Pool       *pgxpool.Pool
	Store      *storage.S3Store
	Model      *FakeModel
	Server     *httptest.Server
	HTTPClient *http.Client
}

// FakeModel is a chat completion endpoint that answers with a queued reply.
type FakeModel struct {
	srv *httptest.Server

	mu      sync.Mutex
	status  int
	content string
	calls   int
}

func newFakeModel() *FakeModel {
	m := &FakeModel{status: http.StatusOK}
	m.srv = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

func (m *FakeModel) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.calls++
	status, content := m.status, m.content
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":{"message":%q,"type":"invalid_request_error"}}`, content)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

// Reply sets the answer for the following requests.
func (m *FakeModel) Reply(status int, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.content = content
}

// Calls returns the number of requests served.
func (m *FakeModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// SetupE2EEnv starts Postgres and RustFS, and serves the full router with
// documents in S3 and run history in Postgres.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	store, err := storage.NewS3Store(ctx, storage.S3StoreConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testutil.RustFSAccessKey,
		SecretAccessKey: testutil.RustFSSecretKey,
		Bucket:          "e2e-notes",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 store: %v", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	model := newFakeModel()
	runs := repository.NewAliasRunRepository(pool)
	workspace := host.NewWorkspace(store, host.LogNotifier{})
	completer := openai.NewClient(openai.Config{BaseURL: model.srv.URL + "/v1"})
	settings := service.StaticSettings(config.Settings{APIKey: "sk-e2e"}.WithDefaults())

	router := server.NewRouter(server.RouterConfig{
		Token:        serverToken,
		AliasHandler: handlers.NewAliasHandler(service.NewAliasService(workspace, completer, settings, runs)),
		RunHandler:   handlers.NewRunHandler(runs),
	})

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Pool:       pool,
		Store:      store,
		Model:      model,
		Server:     httptest.NewServer(router),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Model != nil {
		e.Model.srv.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// APIResponse is the envelope returned by the server.
type APIResponse struct {
	Status int                 `json:"-"`
	Data   jsoniter.RawMessage `json:"data"`
	Error  string              `json:"error"`
	Code   string              `json:"code"`
}

// Do sends a request. An empty token sends the server token and "-" sends
// no Authorization header.
func (e *E2ETestEnv) Do(method, path string, body interface{}, token string) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.Server.URL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	switch token {
	case "-":
	case "":
		req.Header.Set("Authorization", "Bearer "+serverToken)
	default:
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	out := &APIResponse{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("failed to parse response %q: %w", raw, err)
	}
	out.Status = resp.StatusCode
	return out, nil
}

// Put stores a document in the bucket.
func (e *E2ETestEnv) Put(handle, content string) {
	if err := e.Store.Write(e.Ctx, handle, content); err != nil {
		e.T.Fatalf("failed to write %s: %v", handle, err)
	}
}

// Get reads a document from the bucket.
func (e *E2ETestEnv) Get(handle string) string {
	content, err := e.Store.Read(e.Ctx, handle)
	if err != nil {
		e.T.Fatalf("failed to read %s: %v", handle, err)
	}
	return content
}
