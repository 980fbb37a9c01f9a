package webhook_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relaykit/core/webhook"
)

func TestRouter_DispatchesMatchedTopic(t *testing.T) {
	t.Parallel()

	source := &staticSource{cfg: mustParse(`{
		"can_consume": true,
		"auth_type": "none",
		"events": {"com.test.event": {}, "com.wild.*": {}}
	}`)}
	notifier := &collectingNotifier{}
	router := webhook.NewRouter(source, notifier)

	r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"topic":"com.test.event","value":"x"}`))
	w := httptest.NewRecorder()
	router.Handle(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	require.Len(t, notifier.topics, 1)
	assert.Equal(t, "com.test.event", notifier.topics[0])
	assert.Equal(t, "x", notifier.data[0]["value"])
}

func TestRouter_WildcardMatch(t *testing.T) {
	t.Parallel()

	source := &staticSource{cfg: mustParse(`{
		"can_consume": true,
		"auth_type": "none",
		"events": {"com.wild.*": {}}
	}`)}
	notifier := &collectingNotifier{}
	router := webhook.NewRouter(source, notifier)

	r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"topic":"com.wild.anything"}`))
	w := httptest.NewRecorder()
	router.Handle(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, notifier.topics, 1)
	assert.Equal(t, "com.wild.anything", notifier.topics[0])
}

func TestRouter_UnmatchedTopicStillAcknowledged(t *testing.T) {
	t.Parallel()

	source := &staticSource{cfg: mustParse(`{
		"can_consume": true,
		"auth_type": "none",
		"events": {"com.test.event": {}}
	}`)}
	notifier := &collectingNotifier{}
	router := webhook.NewRouter(source, notifier)

	r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"topic":"com.invalid.event"}`))
	w := httptest.NewRecorder()
	router.Handle(w, r)

	// Acknowledgement is decoupled from local interest.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Empty(t, notifier.topics)
}

func TestRouter_InternalTopicAlwaysValid(t *testing.T) {
	t.Parallel()

	source := &staticSource{cfg: mustParse(`{"can_consume": true, "auth_type": "none"}`)}
	notifier := &collectingNotifier{}
	router := webhook.NewRouter(source, notifier)

	r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"topic":"configured"}`))
	w := httptest.NewRecorder()
	router.Handle(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, notifier.topics, 1)
	assert.Equal(t, "configured", notifier.topics[0])
}

func TestRouter_ToleratesBadBodies(t *testing.T) {
	t.Parallel()

	source := &staticSource{cfg: mustParse(`{"can_consume": true, "auth_type": "none"}`)}
	notifier := &collectingNotifier{}
	router := webhook.NewRouter(source, notifier)

	for _, body := range []string{"", "not-json", `{"no_topic":true}`, `{"topic":42}`} {
		r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.Handle(w, r)

		assert.Equal(t, http.StatusOK, w.Code, "body %q", body)
		assert.Empty(t, notifier.topics, "body %q", body)
	}
}

func TestRouter_BodyLimit(t *testing.T) {
	t.Parallel()

	source := &staticSource{cfg: mustParse(`{"can_consume": true, "auth_type": "none"}`)}
	router := webhook.NewRouter(source, &collectingNotifier{}, webhook.WithRouterBodyLimit(8))

	r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"topic":"com.test.event"}`))
	w := httptest.NewRecorder()
	router.Handle(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid request body."}`, w.Body.String())
}
