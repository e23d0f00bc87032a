// Package api_test tests the view API.
package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/book-expert/vibevoice/internal/api"
	"github.com/book-expert/vibevoice/internal/app"
	"github.com/book-expert/vibevoice/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct{}

func (stubChecker) FetchConfig(context.Context, string) (core.VoiceConfig, error) {
	return core.VoiceConfig{Voices: []string{"a", "b"}, DefaultVoice: "a"}, nil
}

type stubGenerator struct{}

func (stubGenerator) GenerateScript(context.Context, core.ScriptRequest) (string, error) {
	return "Speaker 1: Hi.\nSpeaker 2: Hello.", nil
}

func newTestServer(t *testing.T) (*api.Server, *app.Controller) {
	t.Helper()

	controller := app.NewController(stubChecker{}, stubGenerator{}, app.WithFallbackAPIKey("key"))
	srv := api.NewServer(controller, nil)

	t.Cleanup(func() {
		require.NoError(t, srv.Shutdown(context.Background()))
	})

	return srv, controller
}

func doRequest(t *testing.T, srv *api.Server, method, target, body string) (*httptest.ResponseRecorder, app.Snapshot) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var snapshot app.Snapshot
	if w.Code == http.StatusOK || w.Code == http.StatusAccepted {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	}

	return w, snapshot
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetState(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	w, snapshot := doRequest(t, srv, http.MethodGet, "/api/state", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, app.DefaultServerURL, snapshot.ServerURL)
	assert.Contains(t, w.Body.String(), `"podcast_creation_step":1`)
}

func TestActions_AddAndSelectText(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/actions/set_new_text_title", `{"value":"Notes"}`)
	doRequest(t, srv, http.MethodPost, "/api/actions/set_new_text_content", `{"value":"Some notes"}`)
	w, snapshot := doRequest(t, srv, http.MethodPost, "/api/actions/add_text_item", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, "Notes", snapshot.Items[0].Title)

	w, snapshot = doRequest(t, srv, http.MethodPost, "/api/actions/select_item", `{"id":"`+snapshot.Items[0].ID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Some notes", snapshot.CurrentText)
}

func TestActions_AsyncRunsInBackground(t *testing.T) {
	t.Parallel()

	srv, controller := newTestServer(t)

	w, _ := doRequest(t, srv, http.MethodPost, "/api/actions/on_load", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	srv.Wait()

	state := controller.Snapshot()
	assert.True(t, state.IsConnected)
	assert.Equal(t, "Connected", state.ConnectionStatus)
	assert.Len(t, state.Items, 1)
}

func TestActions_WaitRunsInline(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	doRequest(t, srv, http.MethodPost, "/api/actions/set_podcast_source_text", `{"value":"Plants make food from light."}`)
	w, snapshot := doRequest(t, srv, http.MethodPost, "/api/actions/generate_podcast?wait=true", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Speaker 1: Hi.\nSpeaker 2: Hello.", snapshot.GeneratedScript)
	assert.False(t, snapshot.PodcastGenerating)

	w, snapshot = doRequest(t, srv, http.MethodPost, "/api/actions/generate_podcast?wait=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, snapshot.Podcasts, 1)
	assert.Equal(t, "Podcast created!", snapshot.PodcastProgress)
}

func TestActions_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{name: "unknown action", method: http.MethodPost, target: "/api/actions/launch_rocket", want: http.StatusNotFound},
		{name: "malformed body", method: http.MethodPost, target: "/api/actions/select_item", body: `{"id":`, want: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, target: "/api/actions/select_item", body: `{"item":"x"}`, want: http.StatusBadRequest},
		{name: "missing speed", method: http.MethodPost, target: "/api/actions/set_playback_speed", body: `{}`, want: http.StatusBadRequest},
		{name: "invalid speed", method: http.MethodPost, target: "/api/actions/set_playback_speed", body: `{"speed":3}`, want: http.StatusBadRequest},
		{name: "invalid page", method: http.MethodPost, target: "/api/actions/set_page", body: `{"page":"admin"}`, want: http.StatusBadRequest},
		{name: "invalid speaker", method: http.MethodPost, target: "/api/actions/set_speaker_voice", body: `{"speaker":7,"voice":"a"}`, want: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodGet, target: "/api/actions/toggle_playback", want: http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := newTestServer(t)

			w, _ := doRequest(t, srv, tc.method, tc.target, tc.body)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestActions_PlaybackFlow(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	_, snapshot := doRequest(t, srv, http.MethodPost, "/api/actions/toggle_playback", "")
	assert.Equal(t, "Select an item first", snapshot.PlaybackStatus)

	_, snapshot = doRequest(t, srv, http.MethodPost, "/api/actions/on_load?wait=1", "")
	doRequest(t, srv, http.MethodPost, "/api/actions/select_item", `{"id":"`+snapshot.Items[0].ID+`"}`)

	w, snapshot := doRequest(t, srv, http.MethodPost, "/api/actions/set_playback_speed", `{"speed":1.25}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 1.25, snapshot.PlaybackSpeed, 0)

	_, snapshot = doRequest(t, srv, http.MethodPost, "/api/actions/toggle_playback", "")
	assert.True(t, snapshot.IsPlaying)
	assert.Equal(t, "a", snapshot.AudioVoice)

	_, snapshot = doRequest(t, srv, http.MethodPost, "/api/actions/playback_ended", "")
	assert.False(t, snapshot.IsPlaying)
	assert.Equal(t, "Finished", snapshot.PlaybackStatus)
}

func TestEventsStream(t *testing.T) {
	t.Parallel()

	srv, controller := newTestServer(t)

	httpServer := httptest.NewServer(srv.Handler())
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpServer.URL+"/api/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	readSnapshot := func() app.Snapshot {
		for {
			line, readErr := reader.ReadString('\n')
			require.NoError(t, readErr)

			payload, found := strings.CutPrefix(line, "data: ")
			if !found {
				continue
			}

			var snapshot app.Snapshot
			require.NoError(t, json.Unmarshal([]byte(payload), &snapshot))

			return snapshot
		}
	}

	initial := readSnapshot()
	assert.Equal(t, app.ViewGrid, initial.ViewMode)

	controller.ToggleViewMode()

	updated := readSnapshot()
	assert.Equal(t, app.ViewList, updated.ViewMode)
}
