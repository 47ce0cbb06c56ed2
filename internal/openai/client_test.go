package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/aliasgen/internal/domain"
	"github.com/cloo-solutions/aliasgen/internal/prompt"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChatAPI is a mock for the OpenAI chat API
type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func newMockClient(api *MockChatAPI) *Client {
	return NewClientWithAPI(func(string, string) ChatAPI { return api }, "", 0)
}

func reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func TestClient_Complete_Success(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := newMockClient(mockAPI)
	p := prompt.Build("Ока", nil, 2000)

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == DefaultChatModel &&
			req.MaxTokens == DefaultMaxTokens &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == openai.ChatMessageRoleSystem &&
			req.Messages[0].Content == p.System &&
			req.Messages[1].Role == openai.ChatMessageRoleUser &&
			req.Messages[1].Content == p.User &&
			req.Temperature > 0 && req.Temperature < 1e-6
	})).Return(reply("  [\"Оке\", \"Окой\"]\n"), nil)

	raw, err := client.Complete(context.Background(), p, CompletionOptions{APIKey: "sk-test"})

	require.NoError(t, err)
	assert.Equal(t, `["Оке", "Окой"]`, raw)
	mockAPI.AssertExpectations(t)
}

func TestClient_Complete_CreativeTemperature(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := newMockClient(mockAPI)

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Temperature == float32(0.7)
	})).Return(reply("a, b"), nil)

	raw, err := client.Complete(context.Background(), prompt.Build("Лес", nil, 10), CompletionOptions{APIKey: "sk-test", Temperature: 0.7})

	require.NoError(t, err)
	assert.Equal(t, "a, b", raw)
	mockAPI.AssertExpectations(t)
}

func TestClient_Complete_PerCallModelOverride(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := newMockClient(mockAPI)

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "gpt-4o" && req.MaxTokens == 50
	})).Return(reply("[]"), nil)

	_, err := client.Complete(context.Background(), prompt.Build("Лес", nil, 10),
		CompletionOptions{APIKey: "sk-test", Model: "gpt-4o", MaxTokens: 50})

	require.NoError(t, err)
	mockAPI.AssertExpectations(t)
}

func TestClient_Complete_MissingAPIKey(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := newMockClient(mockAPI)

	_, err := client.Complete(context.Background(), prompt.Build("x", nil, 10), CompletionOptions{})

	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	mockAPI.AssertNotCalled(t, "CreateChatCompletion", mock.Anything, mock.Anything)
}

func TestClient_Complete_NoChoices(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := newMockClient(mockAPI)

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(openai.ChatCompletionResponse{}, nil)

	_, err := client.Complete(context.Background(), prompt.Build("x", nil, 10), CompletionOptions{APIKey: "sk"})

	assert.Equal(t, domain.ErrCodeMalformedResponse, domain.CodeOf(err))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{"api error", &openai.APIError{Message: "invalid_api_key", HTTPStatusCode: 401}, domain.ErrCodeAPIRejected, "invalid_api_key"},
		{"request error", &openai.RequestError{HTTPStatusCode: 502, Err: errors.New("bad gateway")}, domain.ErrCodeAPIRejected, "HTTP 502"},
		{"deadline", context.DeadlineExceeded, domain.ErrCodeNetwork, domain.ErrNetwork.Message},
		{"decode", &json.SyntaxError{}, domain.ErrCodeMalformedResponse, domain.ErrMalformedResponse.Message},
		{"invalid model", openai.ErrChatCompletionInvalidModel, domain.ErrCodeValidation, "model is not supported for chat completions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError(tt.err)
			var de *domain.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, tt.message, de.Message)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{})
	assert.Equal(t, DefaultChatModel, client.Model())
	assert.Equal(t, DefaultMaxTokens, client.maxTokens)

	client = NewClient(Config{Model: "gpt-4o", MaxTokens: 50})
	assert.Equal(t, "gpt-4o", client.Model())
	assert.Equal(t, 50, client.maxTokens)
}

type wireRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestClient_Complete_Wire(t *testing.T) {
	var got wireRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Лесной, лесок"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/v1/"})
	raw, err := client.Complete(context.Background(), prompt.Build("Лес", nil, 10), CompletionOptions{APIKey: "sk-wire"})

	require.NoError(t, err)
	assert.Equal(t, "Лесной, лесок", raw)
	assert.Equal(t, "Bearer sk-wire", auth)
	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, DefaultChatModel, got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.Less(t, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestClient_Complete_PerCallBaseURL(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"[\"a\"]"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: "http://127.0.0.1:1/unused"})
	raw, err := client.Complete(context.Background(), prompt.Build("x", nil, 10), CompletionOptions{
		APIKey:  "sk",
		BaseURL: srv.URL + "/proxy/v1",
	})

	require.NoError(t, err)
	assert.Equal(t, `["a"]`, raw)
	assert.Equal(t, "/proxy/v1/chat/completions", path)
}

func TestClient_Complete_WireRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid_api_key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/v1"})
	_, err := client.Complete(context.Background(), prompt.Build("x", nil, 10), CompletionOptions{APIKey: "bad"})

	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeAPIRejected, de.Code)
	assert.Equal(t, "invalid_api_key", de.Message)
}

func TestClient_Complete_WireRejectedWithoutJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/v1"})
	_, err := client.Complete(context.Background(), prompt.Build("x", nil, 10), CompletionOptions{APIKey: "sk"})

	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeAPIRejected, de.Code)
	assert.Equal(t, "HTTP 502", de.Message)
}

func TestClient_Complete_WireMalformedSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/v1"})
	_, err := client.Complete(context.Background(), prompt.Build("x", nil, 10), CompletionOptions{APIKey: "sk"})

	assert.Equal(t, domain.ErrCodeMalformedResponse, domain.CodeOf(err))
}

func TestClient_Complete_WireUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL + "/v1"
	srv.Close()

	client := NewClient(Config{BaseURL: baseURL})
	_, err := client.Complete(context.Background(), prompt.Build("x", nil, 10), CompletionOptions{APIKey: "sk"})

	assert.Equal(t, domain.ErrCodeNetwork, domain.CodeOf(err))
}
