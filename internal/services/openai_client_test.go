package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fabric-agent/internal/config"
	"fabric-agent/internal/models"
)

// fakeAssistantsAPI serves the handful of Assistants REST routes the client uses.
type fakeAssistantsAPI struct {
	mu          sync.Mutex
	runStatus   string
	postedBody  map[string]any
	runBody     map[string]any
	listQuery   string
	authHeader  string
	apiKey      string
	apiVersions []string
	unauthorize bool
}

// handler mounts the routes under prefix: "/v1" for OpenAI, "/openai" for Azure.
func (f *fakeAssistantsAPI) handler(prefix string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST "+prefix+"/threads", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.authHeader = r.Header.Get("Authorization")
		deny := f.unauthorize
		f.mu.Unlock()

		if deny {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
			return
		}
		writeTestJSON(w, `{"id":"thread_abc","object":"thread","created_at":1700000000,"metadata":{}}`)
	})

	mux.HandleFunc("POST "+prefix+"/threads/{thread}/messages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.postedBody = body
		f.mu.Unlock()
		writeTestJSON(w, `{"id":"msg_user","object":"thread.message","thread_id":"thread_abc","role":"user","content":[{"type":"text","text":{"value":"hi","annotations":[]}}]}`)
	})

	mux.HandleFunc("POST "+prefix+"/threads/{thread}/runs", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.runBody = body
		f.mu.Unlock()
		writeTestJSON(w, `{"id":"run_1","object":"thread.run","thread_id":"thread_abc","assistant_id":"asst_1","status":"queued"}`)
	})

	mux.HandleFunc("GET "+prefix+"/threads/{thread}/runs/{run}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status := f.runStatus
		f.mu.Unlock()
		writeTestJSON(w, `{"id":"run_1","object":"thread.run","thread_id":"thread_abc","assistant_id":"asst_1","status":"`+status+`"}`)
	})

	mux.HandleFunc("GET "+prefix+"/threads/{thread}/messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.listQuery = r.URL.RawQuery
		f.mu.Unlock()
		writeTestJSON(w, `{"object":"list","data":[
			{"id":"msg_2","object":"thread.message","thread_id":"thread_abc","role":"assistant","content":[{"type":"text","text":{"value":"There are 42 tables.","annotations":[]}}]},
			{"id":"msg_1","object":"thread.message","thread_id":"thread_abc","role":"user","content":[{"type":"text","text":{"value":"hi","annotations":[]}}]}
		],"first_id":"msg_2","last_id":"msg_1","has_more":false}`)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.apiKey = r.Header.Get("Api-Key")
		f.apiVersions = append(f.apiVersions, r.URL.Query().Get("api-version"))
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

func writeTestJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, body)
}

func newTestClient(t *testing.T, api *fakeAssistantsAPI) *OpenAIAssistantClient {
	t.Helper()
	srv := httptest.NewServer(api.handler("/v1"))
	t.Cleanup(srv.Close)

	client, err := NewOpenAIAssistantClient(&config.Config{
		Provider:       config.ProviderOpenAI,
		OpenAIAPIKey:   "sk-test",
		OpenAIBaseURL:  srv.URL + "/v1/",
		RequestTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestOpenAIAssistantClient_RoundTrip(t *testing.T) {
	api := &fakeAssistantsAPI{runStatus: "completed"}
	client := newTestClient(t, api)
	svc := NewAssistantService(client, "asst_1", time.Millisecond, 5)

	reply, err := svc.Ask(context.Background(), "how many tables?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "There are 42 tables." {
		t.Fatalf("unexpected reply %q", reply)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.authHeader != "Bearer sk-test" {
		t.Fatalf("expected bearer auth, got %q", api.authHeader)
	}
	if api.postedBody["role"] != "user" || api.postedBody["content"] != "how many tables?" {
		t.Fatalf("unexpected message body: %v", api.postedBody)
	}
	if api.runBody["assistant_id"] != "asst_1" {
		t.Fatalf("unexpected run body: %v", api.runBody)
	}
	if !strings.Contains(api.listQuery, "order=desc") {
		t.Fatalf("expected newest-first listing, got query %q", api.listQuery)
	}
}

func TestOpenAIAssistantClient_RunStatus(t *testing.T) {
	api := &fakeAssistantsAPI{runStatus: "expired"}
	client := newTestClient(t, api)

	status, err := client.GetRun(context.Background(), "thread_abc", "run_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != models.RunStatusExpired {
		t.Fatalf("expected expired, got %q", status)
	}
}

func TestOpenAIAssistantClient_ListMessagesMapsContent(t *testing.T) {
	client := newTestClient(t, &fakeAssistantsAPI{})

	messages, err := client.ListMessages(context.Background(), "thread_abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != models.RoleAssistant || messages[0].Content[0].Type != models.ContentTypeText {
		t.Fatalf("unexpected first message: %+v", messages[0])
	}
	if messages[0].Content[0].Text != "There are 42 tables." {
		t.Fatalf("unexpected text %q", messages[0].Content[0].Text)
	}
}

func TestOpenAIAssistantClient_UpstreamError(t *testing.T) {
	api := &fakeAssistantsAPI{unauthorize: true}
	client := newTestClient(t, api)
	svc := NewAssistantService(client, "asst_1", time.Millisecond, 5)

	_, err := svc.Ask(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected an error for a 401 upstream response")
	}
	if errors.Is(err, ErrRunFailed) || errors.Is(err, ErrRunTimeout) {
		t.Fatalf("auth failure should not look like a run outcome: %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status code in error text, got %q", err.Error())
	}
}

func TestOpenAIAssistantClient_AzureRoundTrip(t *testing.T) {
	api := &fakeAssistantsAPI{runStatus: "completed"}
	srv := httptest.NewServer(api.handler("/openai"))
	t.Cleanup(srv.Close)

	client, err := NewOpenAIAssistantClient(&config.Config{
		Provider:        config.ProviderAzure,
		AzureEndpoint:   srv.URL + "/",
		AzureAPIKey:     "azure-key",
		AzureAPIVersion: "2024-02-15-preview",
		RequestTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	svc := NewAssistantService(client, "asst_1", time.Millisecond, 5)

	reply, err := svc.Ask(context.Background(), "how many tables?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "There are 42 tables." {
		t.Fatalf("unexpected reply %q", reply)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.apiKey != "azure-key" {
		t.Fatalf("expected Api-Key header, got %q", api.apiKey)
	}
	// thread, message, run, one poll, list
	if len(api.apiVersions) != 5 {
		t.Fatalf("expected 5 requests under /openai, got %d", len(api.apiVersions))
	}
	for i, v := range api.apiVersions {
		if v != "2024-02-15-preview" {
			t.Fatalf("request %d: expected api-version 2024-02-15-preview, got %q", i, v)
		}
	}
	if api.runBody["assistant_id"] != "asst_1" {
		t.Fatalf("unexpected run body: %v", api.runBody)
	}
}

func TestRequestOptions_Azure(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   string
		wantOpts int
	}{
		{"api key", "azure-key", 2},
		{"entra id credential", "", 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts, err := requestOptions(&config.Config{
				Provider:        config.ProviderAzure,
				AzureEndpoint:   "https://example.openai.azure.com/",
				AzureAPIKey:     tc.apiKey,
				AzureAPIVersion: "2024-02-15-preview",
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(opts) != tc.wantOpts {
				t.Fatalf("expected %d options, got %d", tc.wantOpts, len(opts))
			}
		})
	}
}

func TestRequestOptions_UnsupportedProvider(t *testing.T) {
	if _, err := requestOptions(&config.Config{Provider: "bedrock"}); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}
