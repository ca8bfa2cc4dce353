package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	j "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	surveyschema "github.com/reoring/surveyschema"
	"github.com/reoring/surveyschema/internal/store"
)

const surveyXML = `<survey>
  <question id="q1" type="single-select">
    <label>Favourite colour?</label>
    <option>Red</option>
    <option>Blue</option>
  </question>
  <question id="q2" type="text">
    <label>Why?</label>
  </question>
</survey>`

func init() { gin.SetMode(gin.TestMode) }

func newTestServer(t *testing.T) (*Server, store.Store) {
	return newTestServerWith(t, Options{})
}

func newTestServerWith(t *testing.T, opts Options) (*Server, store.Store) {
	t.Helper()
	st, err := store.Open(store.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, opts), st
}

func dialLive(t *testing.T, srv *Server, id string) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/surveys/" + id + "/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := j.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, j.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestParseEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/parse", gin.H{"code": surveyXML, "format": "xml"})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[surveyschema.ParseResult](t, w)
	require.NotNil(t, res.Schema)
	assert.Len(t, res.Schema.Questions, 2)
	assert.Empty(t, res.Diagnostics)

	w = doJSON(t, srv.Handler(), http.MethodPost, "/v1/parse", gin.H{"code": "{}", "format": "csv"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	res = decode[surveyschema.ParseResult](t, w)
	assert.Nil(t, res.Schema)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, surveyschema.KindSyntax, res.Diagnostics[0].Kind)
	assert.Contains(t, res.Diagnostics[0].Message, "csv")
}

func TestParseEndpointStrict(t *testing.T) {
	srv, _ := newTestServer(t)
	code := `{"questions":[{"id":"q1","type":"single-select","label":"Pick","options":["only"]}]}`

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/parse", gin.H{"code": code, "format": "json"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv.Handler(), http.MethodPost, "/v1/parse", gin.H{"code": code, "format": "json", "strict": true})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	res := decode[surveyschema.ParseResult](t, w)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, surveyschema.KindStructure, res.Diagnostics[0].Kind)
}

func TestParseEndpointRequiresFormat(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/parse", gin.H{"code": surveyXML})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConvertEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/convert", gin.H{"code": surveyXML, "from": "xml", "to": "yaml"})
	require.Equal(t, http.StatusOK, w.Code)
	out := decode[codeResponse](t, w)
	assert.Equal(t, surveyschema.FormatYAML, out.Format)
	back := surveyschema.ParseSurvey(out.Code, surveyschema.FormatYAML)
	require.True(t, back.OK(), back.Diagnostics.Error())
	assert.True(t, back.Schema.Equal(surveyschema.MustParse(surveyXML, surveyschema.FormatXML)))

	w = doJSON(t, srv.Handler(), http.MethodPost, "/v1/convert", gin.H{"code": "<survey>", "from": "xml", "to": "json"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, srv.Handler(), http.MethodPost, "/v1/convert", gin.H{"code": surveyXML, "from": "xml", "to": "csv"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMergeEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	frag := `{"questions":[{"type":"single-select","label":"Size?","options":["S","L"]}]}`

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/merge", gin.H{"code": surveyXML, "format": "xml", "fragment": frag})
	require.Equal(t, http.StatusOK, w.Code)
	out := decode[codeResponse](t, w)
	merged := surveyschema.MustParse(out.Code, surveyschema.FormatXML)
	require.Len(t, merged.Questions, 3)
	assert.Equal(t, []string{"q1", "q3", "q2"}, ids(merged))

	w = doJSON(t, srv.Handler(), http.MethodPost, "/v1/merge", gin.H{"code": "", "format": "json", "fragment": frag})
	require.Equal(t, http.StatusOK, w.Code)
	out = decode[codeResponse](t, w)
	fresh := surveyschema.MustParse(out.Code, surveyschema.FormatJSON)
	assert.Equal(t, []string{"q1"}, ids(fresh))

	w = doJSON(t, srv.Handler(), http.MethodPost, "/v1/merge", gin.H{"code": surveyXML, "format": "xml", "fragment": `{"questions":`})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func ids(s surveyschema.Schema) []string {
	out := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		out = append(out, q.ID)
	}
	return out
}

type surveyEnvelope struct {
	Survey store.Survey `json:"survey"`
}

func createSurvey(t *testing.T, srv *Server) store.Survey {
	t.Helper()
	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/surveys", gin.H{
		"title":   "Onboarding",
		"product": "app",
		"format":  "xml",
		"code":    surveyXML,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[surveyEnvelope](t, w).Survey
}

func TestSurveyLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createSurvey(t, srv)
	require.NotEmpty(t, created.ID)
	require.NotNil(t, created.Schema)
	assert.Len(t, created.Schema.Questions, 2)

	w := doJSON(t, srv.Handler(), http.MethodGet, "/v1/surveys/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Onboarding", decode[surveyEnvelope](t, w).Survey.Title)

	w = doJSON(t, srv.Handler(), http.MethodGet, "/v1/surveys", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Surveys []store.Survey `json:"surveys"`
	}](t, w)
	assert.Len(t, list.Surveys, 1)

	w = doJSON(t, srv.Handler(), http.MethodDelete, "/v1/surveys/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, srv.Handler(), http.MethodGet, "/v1/surveys/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateMetadata(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createSurvey(t, srv)

	w := doJSON(t, srv.Handler(), http.MethodPut, "/v1/surveys/"+created.ID, gin.H{
		"title":       "Onboarding v2",
		"description": "Second pass",
		"product":     "web",
		"coverImage":  "https://example.com/cover.png",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[surveyEnvelope](t, w).Survey
	assert.Equal(t, "Onboarding v2", got.Title)
	assert.Equal(t, "Second pass", got.Description)
	assert.Equal(t, "web", got.Product)
	assert.Equal(t, "https://example.com/cover.png", got.CoverImage)
	assert.Equal(t, surveyXML, got.RawCode)
	require.NotNil(t, got.Schema)
	assert.Len(t, got.Schema.Questions, 2)

	w = doJSON(t, srv.Handler(), http.MethodPut, "/v1/surveys/"+created.ID, gin.H{"title": "x", "coverImage": "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv.Handler(), http.MethodPut, "/v1/surveys/missing", gin.H{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRequiresTitle(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/surveys", gin.H{"product": "app"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAutosaveKeepsLastValidSchema(t *testing.T) {
	srv, st := newTestServer(t)
	created := createSurvey(t, srv)

	broken := strings.Replace(surveyXML, "</survey>", "", 1)
	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/surveys/"+created.ID+"/autosave", gin.H{"code": broken, "format": "xml"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Success     bool                     `json:"success"`
		Diagnostics surveyschema.Diagnostics `json:"diagnostics"`
	}](t, w)
	assert.True(t, body.Success)
	require.Len(t, body.Diagnostics, 1)
	assert.Equal(t, surveyschema.KindSyntax, body.Diagnostics[0].Kind)

	got, err := st.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, broken, got.RawCode)
	require.NotNil(t, got.Schema)
	assert.Len(t, got.Schema.Questions, 2)
	assert.Len(t, got.Versions, 1)

	w = doJSON(t, srv.Handler(), http.MethodPost, "/v1/surveys/missing/autosave", gin.H{"code": surveyXML, "format": "xml"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGeneratedMergesIntoStoredSurvey(t *testing.T) {
	srv, st := newTestServer(t)
	created := createSurvey(t, srv)

	frag := `{"questions":[{"type":"text","label":"Anything else?"}]}`
	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/surveys/"+created.ID+"/generated", gin.H{"fragment": frag})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := st.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Schema)
	assert.Equal(t, []string{"q1", "q2", "q3"}, ids(*got.Schema))
	assert.Equal(t, surveyschema.TypeText, got.Schema.Questions[2].Type)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	doJSON(t, srv.Handler(), http.MethodPost, "/v1/parse", gin.H{"code": "<survey>", "format": "xml"})

	w := doJSON(t, srv.Handler(), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `surveyschema_parse_total{format="xml",outcome="invalid"} 1`)
	assert.Contains(t, w.Body.String(), `surveyschema_diagnostics_total{kind="syntax"} 1`)
}

func TestLiveChannel(t *testing.T) {
	srv, st := newTestServer(t)
	created := createSurvey(t, srv)
	conn := dialLive(t, srv, created.ID)

	require.NoError(t, conn.WriteJSON(liveMessage{Code: "<survey><oops></survey>", Format: "xml"}))
	var reply liveReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Nil(t, reply.Schema)
	require.NotEmpty(t, reply.Diagnostics)
	assert.Equal(t, surveyschema.KindSyntax, reply.Diagnostics[0].Kind)
	assert.False(t, reply.Saved)

	single := `<survey><question id="a" type="rating"><label>Rate us</label></question></survey>`
	require.NoError(t, conn.WriteJSON(liveMessage{Code: single, Format: "xml", Save: true}))
	reply = liveReply{}
	require.NoError(t, conn.ReadJSON(&reply))
	require.NotNil(t, reply.Schema)
	assert.True(t, reply.Saved)

	got, err := st.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, single, got.RawCode)
}

func TestLiveChannelSaveWithUnknownFormat(t *testing.T) {
	srv, st := newTestServer(t)
	created := createSurvey(t, srv)
	conn := dialLive(t, srv, created.ID)

	require.NoError(t, conn.WriteJSON(liveMessage{Code: surveyXML, Format: "csv", Save: true}))
	var reply liveReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.False(t, reply.Saved)
	assert.Contains(t, reply.Error, "csv")

	got, err := st.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Versions)
}

func TestLiveChannelStaysOpenWhileIdle(t *testing.T) {
	srv, _ := newTestServerWith(t, Options{LivePongWait: 200 * time.Millisecond})
	created := createSurvey(t, srv)
	conn := dialLive(t, srv, created.ID)

	// Replies are read in the background so the client answers pings.
	replies := make(chan liveReply, 4)
	readErr := make(chan error, 1)
	go func() {
		for {
			var r liveReply
			if err := conn.ReadJSON(&r); err != nil {
				readErr <- err
				return
			}
			replies <- r
		}
	}()

	time.Sleep(700 * time.Millisecond)
	require.NoError(t, conn.WriteJSON(liveMessage{Code: surveyXML, Format: "xml"}))
	select {
	case r := <-replies:
		assert.NotNil(t, r.Schema)
	case err := <-readErr:
		t.Fatalf("idle session was closed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply after idling")
	}
}

func TestLiveChannelUnknownSurvey(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/surveys/nope/live"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunStopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()
	cancel()
	require.NoError(t, <-done)
}
