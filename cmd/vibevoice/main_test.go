package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/book-expert/vibevoice/internal/config"
	"github.com/book-expert/vibevoice/internal/script"
	"github.com/book-expert/vibevoice/internal/tts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}

	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "check")
}

func TestNewScriptGenerator(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.ApplyDefaults()

	generator, err := newScriptGenerator(&cfg)
	require.NoError(t, err)
	assert.IsType(t, &script.Client{}, generator)

	cfg.Gemini.Backend = config.BackendSDK
	generator, err = newScriptGenerator(&cfg)
	require.NoError(t, err)
	assert.IsType(t, &script.SDKGenerator{}, generator)

	cfg.Gemini.Backend = "other"
	_, err = newScriptGenerator(&cfg)
	require.ErrorIs(t, err, config.ErrUnknownBackend)
}

func TestRunCheck(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/config":
			_, _ = w.Write([]byte(`{"voices":["en-Carter_man","en-Emma_woman"],"default_voice":"en-Carter_man"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	var out bytes.Buffer

	err := runCheck(context.Background(), &out, tts.NewHTTPClient(0), server.URL)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "health: ok")
	assert.Contains(t, out.String(), "default voice: en-Carter_man")
	assert.Contains(t, out.String(), "en-Emma_woman")
	assert.Contains(t, strings.ToLower(out.String()), "2 voices")
}

func TestRunCheck_ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var out bytes.Buffer

	err := runCheck(context.Background(), &out, tts.NewHTTPClient(0), server.URL)

	var statusErr *tts.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, out.String(), "health:")
}
