package relaykit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	relaykit "github.com/dmitrymomot/relaykit"
	"github.com/dmitrymomot/relaykit/core/delivery"
	"github.com/dmitrymomot/relaykit/core/notify"
	"github.com/dmitrymomot/relaykit/core/webhook"
)

func testConfig(baseURL string) relaykit.Config {
	return relaykit.Config{
		BaseURL:    baseURL,
		Key:        "key-1",
		Secret:     "secret-1",
		Timeout:    time.Second,
		RetryLimit: 3,
	}
}

// capturedRequest is one request observed by the test server.
type capturedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// eventServer records event deliveries and serves a config snapshot.
type eventServer struct {
	mu         sync.Mutex
	requests   []capturedRequest
	configBody string
	srv        *httptest.Server
}

func newEventServer(t *testing.T, configBody string) *eventServer {
	t.Helper()

	es := &eventServer{configBody: configBody}
	es.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		es.mu.Lock()
		es.requests = append(es.requests, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		es.mu.Unlock()

		if r.URL.Path == "/api/client/config" {
			_, _ = w.Write([]byte(es.configBody))
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(es.srv.Close)
	return es
}

func (es *eventServer) captured() []capturedRequest {
	es.mu.Lock()
	defer es.mu.Unlock()
	out := make([]capturedRequest, len(es.requests))
	copy(out, es.requests)
	return out
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := relaykit.New(relaykit.Config{Key: "k", Secret: "s"})
	assert.ErrorIs(t, err, relaykit.ErrValidation)

	_, err = relaykit.New(relaykit.Config{BaseURL: "https://x.example.com", Secret: "s"})
	assert.ErrorIs(t, err, relaykit.ErrValidation)

	_, err = relaykit.New(relaykit.Config{BaseURL: "https://x.example.com", Key: "k"})
	assert.ErrorIs(t, err, relaykit.ErrValidation)
}

func TestPublish_EndToEnd(t *testing.T) {
	t.Parallel()

	es := newEventServer(t, `{}`)
	client, err := relaykit.New(testConfig(es.srv.URL))
	require.NoError(t, err)
	defer client.Close()

	original := map[string]any{"user": "alice", "password": "p"}
	id, err := client.Publish("com.test.event", original, nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		return client.Stats().Delivered == 1
	}, time.Second, 5*time.Millisecond)

	reqs := es.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/api/event", reqs[0].Path)
	assert.Equal(t, "key-1", reqs[0].Header.Get(delivery.HeaderAPIKey))
	assert.Equal(t, delivery.Sign("secret-1", reqs[0].Body), reqs[0].Header.Get(delivery.HeaderAPISig))

	var sent struct {
		ID    string         `json:"id"`
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(reqs[0].Body, &sent))
	assert.Equal(t, id, sent.ID)
	assert.Equal(t, "com.test.event", sent.Event)
	assert.Equal(t, "alice", sent.Data["user"])
	assert.Equal(t, "[HIDDEN]", sent.Data["password"])

	// The caller's object is never touched.
	assert.Equal(t, "p", original["password"])
}

func TestPublish_ValidatesSynchronously(t *testing.T) {
	t.Parallel()

	client, err := relaykit.New(testConfig("https://unreachable.invalid"))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Publish("", map[string]any{}, nil)
	assert.ErrorIs(t, err, relaykit.ErrValidation)

	_, err = client.Publish(strings.Repeat("a", 256), map[string]any{}, nil)
	assert.ErrorIs(t, err, relaykit.ErrValidation)

	_, err = client.Publish("com.test.event", "not an object", nil)
	assert.ErrorIs(t, err, relaykit.ErrValidation)

	_, err = client.Publish("com.test.event", nil, nil)
	assert.ErrorIs(t, err, relaykit.ErrValidation)

	_, err = client.Publish("com.test.event", map[string]any{}, []string{"bad"})
	assert.ErrorIs(t, err, relaykit.ErrValidation)

	// No delivery was ever attempted.
	assert.Equal(t, delivery.Stats{}, client.Stats())
}

func TestPublish_DistinctIDsPerCall(t *testing.T) {
	t.Parallel()

	es := newEventServer(t, `{}`)
	client, err := relaykit.New(testConfig(es.srv.URL))
	require.NoError(t, err)
	defer client.Close()

	id1, err := client.Publish("com.test.event", map[string]any{}, nil)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	id2, err := client.Publish("com.test.event", map[string]any{}, nil)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}

func TestUpdate_EndToEnd(t *testing.T) {
	t.Parallel()

	es := newEventServer(t, `{}`)
	client, err := relaykit.New(testConfig(es.srv.URL))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Update("ev-42", map[string]any{"state": "done"}, nil))

	require.Eventually(t, func() bool {
		return client.Stats().Delivered == 1
	}, time.Second, 5*time.Millisecond)

	reqs := es.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPatch, reqs[0].Method)
	assert.Equal(t, "/api/event/ev-42", reqs[0].Path)
}

func TestUpdate_RequiresID(t *testing.T) {
	t.Parallel()

	client, err := relaykit.New(testConfig("https://unreachable.invalid"))
	require.NoError(t, err)
	defer client.Close()

	assert.ErrorIs(t, client.Update("", map[string]any{}, nil), relaykit.ErrValidation)
}

func TestPublish_FireAndForget(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := relaykit.New(testConfig(srv.URL))
	require.NoError(t, err)
	defer client.Close()

	// A server rejection never surfaces as a Publish error.
	_, err = client.Publish("com.test.event", map[string]any{}, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return client.Stats().Rejected == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDisabledClient_NoOps(t *testing.T) {
	t.Parallel()

	cfg := testConfig("https://unreachable.invalid")
	cfg.Disabled = true
	client, err := relaykit.New(cfg)
	require.NoError(t, err)
	defer client.Close()

	id, err := client.Publish("com.test.event", map[string]any{}, nil)
	assert.NoError(t, err)
	assert.Empty(t, id)

	assert.NoError(t, client.Update("ev-1", map[string]any{}, nil))
	assert.NoError(t, client.FetchConfig(context.Background()))
	assert.Equal(t, delivery.Stats{}, client.Stats())
}

func TestFetchConfig(t *testing.T) {
	t.Parallel()

	es := newEventServer(t, `{
		"can_consume": true,
		"can_publish": true,
		"auth_type": "basic",
		"url": "https://un:pw@hooks.example.com",
		"events": {"com.test.event": {}}
	}`)

	var logs bytes.Buffer
	client, err := relaykit.New(testConfig(es.srv.URL),
		relaykit.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, err)
	defer client.Close()

	require.Nil(t, client.Config())

	// Subscriptions registered before the fetch are queued for validation.
	client.OnTopic("com.test.event", notify.NewHandler(func(context.Context, notify.TopicPayload) error { return nil }))
	client.OnTopic("com.unknown.event", notify.NewHandler(func(context.Context, notify.TopicPayload) error { return nil }))

	var configured notify.ConfiguredPayload
	client.On(notify.KindConfigured, notify.NewHandler(func(_ context.Context, p notify.ConfiguredPayload) error {
		configured = p
		return nil
	}))

	require.NoError(t, client.FetchConfig(context.Background()))

	require.NotNil(t, client.Config())
	assert.True(t, configured.CanConsume)
	assert.True(t, configured.CanPublish)
	assert.Equal(t, []string{"com.test.event"}, configured.Topics)

	// The queued check flagged the unknown topic.
	assert.Contains(t, logs.String(), "com.unknown.event")
	assert.NotContains(t, logs.String(), "topic=com.test.event")

	// The config request is a signed empty-body GET.
	reqs := es.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/api/client/config", reqs[0].Path)
	assert.Equal(t, delivery.Sign("secret-1", nil), reqs[0].Header.Get(delivery.HeaderAPISig))
}

func TestFetchConfig_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()

		client, err := relaykit.New(testConfig("https://unreachable.invalid"))
		require.NoError(t, err)
		defer client.Close()

		assert.ErrorIs(t, client.FetchConfig(context.Background()), relaykit.ErrConfigFetch)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{`))
		}))
		defer srv.Close()

		client, err := relaykit.New(testConfig(srv.URL))
		require.NoError(t, err)
		defer client.Close()

		assert.ErrorIs(t, client.FetchConfig(context.Background()), relaykit.ErrConfigFetch)
	})

	t.Run("unexpected status", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client, err := relaykit.New(testConfig(srv.URL))
		require.NoError(t, err)
		defer client.Close()

		assert.ErrorIs(t, client.FetchConfig(context.Background()), relaykit.ErrConfigFetch)
	})
}

func TestWebhook_EndToEnd(t *testing.T) {
	t.Parallel()

	es := newEventServer(t, `{
		"can_consume": true,
		"auth_type": "basic",
		"url": "https://un:pw@hooks.example.com",
		"events": {"com.test.event": {}}
	}`)

	client, err := relaykit.New(testConfig(es.srv.URL))
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.FetchConfig(context.Background()))

	var received []notify.TopicPayload
	client.OnTopic("com.test.event", notify.NewHandler(func(_ context.Context, p notify.TopicPayload) error {
		received = append(received, p)
		return nil
	}))

	t.Run("authenticated delivery dispatches", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"topic":"com.test.event","value":7}`))
		r.SetBasicAuth("un", "pw")
		w := httptest.NewRecorder()
		client.HandleWebhook(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
		require.Len(t, received, 1)
		assert.Equal(t, "com.test.event", received[0].Topic)
		assert.Equal(t, float64(7), received[0].Data["value"])
	})

	t.Run("bad credentials rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"topic":"com.test.event"}`))
		r.SetBasicAuth("un", "nope")
		w := httptest.NewRecorder()
		client.HandleWebhook(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Unauthorized"}`, w.Body.String())
		assert.Len(t, received, 1)
	})

	t.Run("wildcard subscription receives concrete topics", func(t *testing.T) {
		var wild []string
		client.OnTopic("com.test.*", notify.NewHandler(func(_ context.Context, p notify.TopicPayload) error {
			wild = append(wild, p.Topic)
			return nil
		}))

		r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"topic":"com.test.event","value":8}`))
		r.SetBasicAuth("un", "pw")
		w := httptest.NewRecorder()
		client.HandleWebhook(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"com.test.event"}, wild)
	})

	t.Run("middleware marks request authenticated", func(t *testing.T) {
		handler := client.AuthenticateWebhook(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, webhook.IsAuthenticated(r))
			w.WriteHeader(http.StatusOK)
		}))

		r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
		r.SetBasicAuth("un", "pw")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func ExampleClient_Publish() {
	client, err := relaykit.New(relaykit.Config{
		BaseURL: "https://events.example.com",
		Key:     "api-key",
		Secret:  "api-secret",
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer client.Close()

	_, err = client.Publish("com.example.order.created", map[string]any{
		"order_id": "ord-1",
	}, nil)
	if err != nil {
		fmt.Println(err)
	}
	// Output:
}
