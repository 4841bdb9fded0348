package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/config"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/hub"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/providers/apifootball"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/topics"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(items ...string) string {
	return `{"get":"x","errors":[],"results":` + itoa(len(items)) + `,"response":[` + strings.Join(items, ",") + `]}`
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

var upstreamResponses = map[string]string{
	"/timezone":                `{"get":"timezone","errors":[],"results":3,"response":["Europe/London","Africa/Abidjan","Europe/Paris"]}`,
	"/countries":               envelope(`{"name":"England","code":"GB","flag":"gb.svg"}`, `{"name":"France","code":"FR","flag":"fr.svg"}`),
	"/leagues":                 envelope(`{"league":{"id":39,"name":"Premier League","type":"League","logo":"39.png"}}`),
	"/leagues?country=England": envelope(`{"league":{"id":39,"name":"Premier League","type":"League","logo":"39.png"}}`, `{"league":{"id":45,"name":"FA Cup","type":"Cup","logo":"45.png"}}`),
}

type testEnv struct {
	router   http.Handler
	hub      *hub.Hub
	upstream string
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" || r.URL.Query().Get("country") == "Atlantis" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body, ok := upstreamResponses[r.URL.RequestURI()]
		if !ok {
			w.Write([]byte(envelope()))
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(upstream.Close)

	client := apifootball.New(config.UpstreamConfig{BaseURL: upstream.URL, Timeout: 5 * time.Second})
	svc := dashboard.NewService(topics.New(2021), client)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub(svc, nil, time.Minute)
	go h.Run(ctx)

	r := chi.NewRouter()
	NewHandler(svc, h, ctx).Register(r)

	return &testEnv{router: r, hub: h, upstream: upstream.URL}
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	dec := json.NewDecoder(rec.Body)
	dec.UseNumber()
	require.NoError(t, dec.Decode(v))
}

func TestHealthCheck(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "football-dashboard", body["service"])
}

func TestGetTopics(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/api/v1/topics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Topics []dashboard.TopicInfo `json:"topics"`
		Count  int                   `json:"count"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 4, body.Count)
	assert.Equal(t, models.TopicLeagues, body.Topics[2].Topic)
	assert.True(t, body.Topics[2].RequiresSubFilter)
}

func TestGetSubOptions(t *testing.T) {
	env := setup(t)

	tests := []struct {
		topic string
		want  []models.SubFilterOption
	}{
		{"timezone", []models.SubFilterOption{}},
		{"countries", []models.SubFilterOption{}},
		{"leagues", []models.SubFilterOption{{Label: "England", Value: "England"}, {Label: "France", Value: "France"}}},
		{"teams", []models.SubFilterOption{{Label: "Premier League", Value: "39"}}},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/topics/"+tt.topic+"/options", nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Options []models.SubFilterOption `json:"options"`
			}
			decode(t, rec, &body)
			assert.Equal(t, tt.want, body.Options)
		})
	}

	rec := env.do(t, http.MethodGet, "/api/v1/topics/players/options", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTable(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/api/v1/topics/leagues/table?filter=England", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result dashboard.Result
	decode(t, rec, &result)
	assert.Equal(t, env.upstream+"/leagues?country=England", result.APICall)
	assert.Equal(t, []string{"id", "name", "type", "logo"}, result.Table.Columns)
	assert.Equal(t, 2, result.Table.Len())
}

func TestGetTable_Errors(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown topic", "/api/v1/topics/players/table", http.StatusBadRequest},
		{"missing sub-filter", "/api/v1/topics/leagues/table", http.StatusBadRequest},
		{"non-numeric league", "/api/v1/topics/teams/table?filter=premier", http.StatusBadRequest},
		{"upstream failure", "/api/v1/topics/leagues/table?filter=Atlantis", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, rec.Code)

			var errResp models.ErrorResponse
			decode(t, rec, &errResp)
			assert.Equal(t, tt.status, errResp.Code)
			assert.NotEmpty(t, errResp.Message)
		})
	}
}

func TestExportSnapshot(t *testing.T) {
	env := setup(t)

	snapshot := map[string]interface{}{
		"columns": []string{"id", "name"},
		"rows": []map[string]interface{}{
			{"id": 39, "name": "Premier League"},
			{"id": 45, "name": "FA Cup", "extra": "dropped"},
		},
	}

	rec := env.do(t, http.MethodPost, "/api/v1/export/csv", snapshot)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="export.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "id,name\n39,Premier League\n45,FA Cup\n", rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/export/xlsx", map[string]interface{}{"columns": []string{"id"}, "rows": []interface{}{}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	rec = env.do(t, http.MethodPost, "/api/v1/export/docx", snapshot)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionFlow(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.SessionState
	decode(t, rec, &created)
	require.NotEmpty(t, created.SessionID)
	base := "/api/v1/sessions/" + created.SessionID

	// nothing to export yet
	rec = env.do(t, http.MethodGet, base+"/export/pdf", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/events", models.ClientMessage{
		Type:    models.MessageTypeTopicChanged,
		Payload: json.RawMessage(`{"topic":"leagues"}`),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp eventResponse
	decode(t, rec, &resp)
	assert.Len(t, resp.State.SubOptions, 2)
	assert.True(t, resp.State.Table.IsEmpty())

	rec = env.do(t, http.MethodPost, base+"/events", models.ClientMessage{
		Type:    models.MessageTypeSubFilterChanged,
		Payload: json.RawMessage(`{"value":"England"}`),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = eventResponse{}
	decode(t, rec, &resp)
	assert.Equal(t, 2, resp.State.Table.Len())
	assert.Equal(t, env.upstream+"/leagues?country=England", resp.State.APICall)

	rec = env.do(t, http.MethodPost, base+"/events", models.ClientMessage{Type: models.MessageTypeCopyRequested})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = eventResponse{}
	decode(t, rec, &resp)
	require.NotNil(t, resp.Clipboard)
	assert.Equal(t, env.upstream+"/leagues?country=England", *resp.Clipboard)

	rec = env.do(t, http.MethodGet, base+"/table?sort=id&desc=true&filter.type=Cup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view models.Table
	decode(t, rec, &view)
	require.Equal(t, 1, view.Len())
	assert.Equal(t, "FA Cup", view.Rows[0]["name"])

	rec = env.do(t, http.MethodGet, base+"/table?sort=missing", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, base+"/export/csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id,name,type,logo\n39,Premier League,League,39.png\n45,FA Cup,Cup,45.png\n", rec.Body.String())

	rec = env.do(t, http.MethodGet, base+"/export/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostEvent_Invalid(t *testing.T) {
	env := setup(t)
	s := env.hub.CreateSession()
	target := "/api/v1/sessions/" + s.ID() + "/events"

	tests := []struct {
		name   string
		msg    models.ClientMessage
		status int
	}{
		{"unknown type", models.ClientMessage{Type: "subscribe"}, http.StatusBadRequest},
		{"unknown topic", models.ClientMessage{Type: models.MessageTypeTopicChanged, Payload: json.RawMessage(`{"topic":"players"}`)}, http.StatusBadRequest},
		{"row out of range", models.ClientMessage{Type: models.MessageTypeRowSelected, Payload: json.RawMessage(`{"row":0}`)}, http.StatusBadRequest},
		{"edit unknown column", models.ClientMessage{Type: models.MessageTypeCellEdited, Payload: json.RawMessage(`{"row":0,"column":"x","value":1}`)}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, target, tt.msg)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec := env.do(t, http.MethodPost, "/api/v1/sessions/nope/events", models.ClientMessage{Type: models.MessageTypeCopyRequested})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebSocket(t *testing.T) {
	env := setup(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func(want string) json.RawMessage {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, want, msg.Type, string(msg.Payload))
		return msg.Payload
	}

	var state models.SessionState
	require.NoError(t, json.Unmarshal(read(models.MessageTypeState), &state))
	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, 1, env.hub.GetClientCount())

	require.NoError(t, conn.WriteJSON(models.ClientMessage{
		Type:    models.MessageTypeTopicChanged,
		Payload: json.RawMessage(`{"topic":"timezone"}`),
	}))
	require.NoError(t, json.Unmarshal(read(models.MessageTypeState), &state))
	assert.Equal(t, []string{"timezone"}, state.Table.Columns)
	assert.Equal(t, 3, state.Table.Len())

	require.NoError(t, conn.WriteJSON(models.ClientMessage{Type: models.MessageTypeCopyRequested}))
	var clip models.ClipboardPayload
	require.NoError(t, json.Unmarshal(read(models.MessageTypeClipboard), &clip))
	assert.Equal(t, env.upstream+"/timezone", clip.Text)

	require.NoError(t, conn.WriteJSON(models.ClientMessage{
		Type:    models.MessageTypeExportRequested,
		Payload: json.RawMessage(`{"format":"csv"}`),
	}))
	var dl models.DownloadPayload
	require.NoError(t, json.Unmarshal(read(models.MessageTypeDownload), &dl))
	assert.Equal(t, "export.csv", dl.FileName)
	assert.Equal(t, "timezone\nEurope/London\nAfrica/Abidjan\nEurope/Paris\n", string(dl.Data))

	require.NoError(t, conn.WriteJSON(models.ClientMessage{Type: "subscribe"}))
	var errMsg models.ErrorMessage
	require.NoError(t, json.Unmarshal(read(models.MessageTypeError), &errMsg))
	assert.Equal(t, "unknown_message_type", errMsg.Code)

	conn.Close()
	assert.Eventually(t, func() bool {
		return env.hub.GetClientCount() == 0 && env.hub.GetSessionCount() == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWebSocket_UnknownSession(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/ws?session=nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
