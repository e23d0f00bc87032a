package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/book-expert/vibevoice/internal/app"
)

// ErrSpeedRequired is returned when set_playback_speed has no speed argument.
var ErrSpeedRequired = errors.New("speed is required")

// ActionArgs carries the arguments of every action. Each action reads only
// the fields it needs.
type ActionArgs struct {
	ID      string   `json:"id,omitempty"`
	Value   string   `json:"value,omitempty"`
	Voice   string   `json:"voice,omitempty"`
	Page    string   `json:"page,omitempty"`
	Style   string   `json:"style,omitempty"`
	Speaker int      `json:"speaker,omitempty"`
	Speed   *float64 `json:"speed,omitempty"`
}

type action struct {
	// async actions wait on the network and run after the response unless
	// the request asks to wait.
	async bool
	run   func(ctx context.Context, c *app.Controller, args ActionArgs) error
}

func simple(fn func(c *app.Controller)) action {
	return action{run: func(_ context.Context, c *app.Controller, _ ActionArgs) error {
		fn(c)

		return nil
	}}
}

func withContext(fn func(c *app.Controller, ctx context.Context)) action {
	return action{async: true, run: func(ctx context.Context, c *app.Controller, _ ActionArgs) error {
		fn(c, ctx)

		return nil
	}}
}

func withString(fn func(c *app.Controller, value string), field func(ActionArgs) string) action {
	return action{run: func(_ context.Context, c *app.Controller, args ActionArgs) error {
		fn(c, field(args))

		return nil
	}}
}

func argID(args ActionArgs) string    { return args.ID }
func argValue(args ActionArgs) string { return args.Value }
func argVoice(args ActionArgs) string { return args.Voice }

var actions = map[string]action{
	"on_load":          withContext((*app.Controller).Load),
	"check_connection": withContext((*app.Controller).CheckConnection),
	"save_settings":    withContext((*app.Controller).SaveSettings),
	"generate_podcast": withContext((*app.Controller).GeneratePodcast),

	"add_text_item": simple((*app.Controller).AddTextItem),
	"add_link_item": simple((*app.Controller).AddLinkItem),
	"delete_item":   withString((*app.Controller).DeleteItem, argID),
	"select_item":   withString((*app.Controller).SelectItem, argID),

	"select_voice":    withString((*app.Controller).SelectVoice, argVoice),
	"toggle_playback": simple((*app.Controller).TogglePlayback),
	"stop_playback":   simple((*app.Controller).StopPlayback),
	"playback_ended":  simple((*app.Controller).PlaybackEnded),
	"set_playback_speed": {run: func(_ context.Context, c *app.Controller, args ActionArgs) error {
		if args.Speed == nil {
			return ErrSpeedRequired
		}

		return c.SetPlaybackSpeed(*args.Speed)
	}},

	"toggle_view_mode": simple((*app.Controller).ToggleViewMode),
	"set_page": {run: func(_ context.Context, c *app.Controller, args ActionArgs) error {
		return c.SetPage(args.Page)
	}},
	"toggle_voice_picker":     simple((*app.Controller).ToggleVoicePicker),
	"toggle_add_text_modal":   simple((*app.Controller).ToggleAddTextModal),
	"toggle_add_link_modal":   simple((*app.Controller).ToggleAddLinkModal),
	"toggle_settings_modal":   simple((*app.Controller).ToggleSettingsModal),
	"set_new_text_title":      withString((*app.Controller).SetNewTextTitle, argValue),
	"set_new_text_content":    withString((*app.Controller).SetNewTextContent, argValue),
	"set_new_link_url":        withString((*app.Controller).SetNewLinkURL, argValue),
	"set_settings_server_url": withString((*app.Controller).SetSettingsServerURL, argValue),
	"set_gemini_api_key":      withString((*app.Controller).SetGeminiAPIKey, argValue),

	"toggle_create_podcast_modal": simple((*app.Controller).ToggleCreatePodcastModal),
	"set_podcast_style": {run: func(_ context.Context, c *app.Controller, args ActionArgs) error {
		return c.SetPodcastStyle(args.Style)
	}},
	"set_podcast_source_text": withString((*app.Controller).SetPodcastSourceText, argValue),
	"set_speaker_voice": {run: func(_ context.Context, c *app.Controller, args ActionArgs) error {
		return c.SetSpeakerVoice(args.Speaker, args.Voice)
	}},
	"next_podcast_step": simple((*app.Controller).NextPodcastStep),
	"prev_podcast_step": simple((*app.Controller).PrevPodcastStep),
	"select_podcast":    withString((*app.Controller).SelectPodcast, argID),
	"play_podcast":      withString((*app.Controller).PlayPodcast, argID),
	"delete_podcast":    withString((*app.Controller).DeletePodcast, argID),
}

// handleAction runs one controller transition. Network-bound actions answer
// 202 immediately unless ?wait=true is given.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("action")

	act, ok := actions[name]
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown action: "+name)

		return
	}

	args, err := decodeArgs(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid action arguments: "+err.Error())

		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))

	if act.async && !wait {
		s.inflight.Add(1)

		go func() {
			defer s.inflight.Done()

			runErr := act.run(s.background, s.controller, args)
			if runErr != nil {
				s.logError("Action %s failed: %v", name, runErr)
			}
		}()

		s.writeJSON(w, http.StatusAccepted, s.controller.Snapshot())

		return
	}

	err = act.run(r.Context(), s.controller, args)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	s.logInfo("Action %s applied", name)
	s.writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func decodeArgs(r *http.Request) (ActionArgs, error) {
	var args ActionArgs

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(&args)
	if err != nil && !errors.Is(err, io.EOF) {
		return ActionArgs{}, err
	}

	return args, nil
}
