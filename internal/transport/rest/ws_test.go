package rest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizplanner/internal/model"
	"bizplanner/internal/service"
	"bizplanner/internal/transport/ws"
)

func (f *apiFixture) wsURL(sessionID, token string) string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "/v1/ws/sessions/" + sessionID + "?token=" + url.QueryEscape(token)
}

func (f *apiFixture) dial(t *testing.T, sessionID, token string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(f.wsURL(sessionID, token), nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func dialStatus(t *testing.T, target string, header http.Header) int {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(target, header)
	if err == nil {
		conn.Close()
		return http.StatusSwitchingProtocols
	}
	require.NotNil(t, resp, err)
	resp.Body.Close()
	return resp.StatusCode
}

// next reads the next envelope, failing after a short deadline.
func next(t *testing.T, conn *websocket.Conn) ws.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// await reads until a message of msgType satisfies match, skipping others.
func await(t *testing.T, conn *websocket.Conn, msgType string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		msg := next(t, conn)
		if string(msg.Type) == msgType && (match == nil || match(msg.Payload)) {
			return msg.Payload
		}
	}
	t.Fatalf("no %s message arrived", msgType)
	return nil
}

func TestWebsocketSendsCurrentPreviewOnConnect(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)
	session := f.createSession(t, token)

	conn := f.dial(t, session.ID, token)
	msg := next(t, conn)
	require.Equal(t, ws.MessageType(service.MsgPreviewUpdate), msg.Type)

	var p model.Preview
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Equal(t, session.ID, p.SessionID)
	assert.Contains(t, p.HTML, "preview-empty")
}

func TestWebsocketUpdateAnswer(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)
	session := f.createSession(t, token)
	qid := session.Questions[0].ID

	conn := f.dial(t, session.ID, token)
	next(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    ws.MsgUpdateAnswer,
		"payload": ws.UpdateAnswerPayload{QuestionID: qid, Text: "We bake **organic** bread daily."},
	}))

	var previewSeen, saveSeen bool
	deadline := time.Now().Add(3 * time.Second)
	for (!previewSeen || !saveSeen) && time.Now().Before(deadline) {
		msg := next(t, conn)
		switch string(msg.Type) {
		case service.MsgPreviewUpdate:
			var p model.Preview
			require.NoError(t, json.Unmarshal(msg.Payload, &p))
			previewSeen = previewSeen || strings.Contains(p.HTML, "<strong>organic</strong>")
		case service.MsgSaveStatus:
			var st model.SaveStatus
			require.NoError(t, json.Unmarshal(msg.Payload, &st))
			assert.Equal(t, qid, st.QuestionID)
			assert.True(t, st.OK)
			saveSeen = true
		}
	}
	assert.True(t, previewSeen, "preview not pushed")
	assert.True(t, saveSeen, "save status not pushed")

	var got model.WizardSession
	require.Equal(t, http.StatusOK, f.do(t, "GET", "/v1/sessions/"+session.ID, token, nil, &got))
	assert.Equal(t, "We bake **organic** bread daily.", got.Answers[qid])
}

func TestWebsocketRepliesWithErrors(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)
	session := f.createSession(t, token)

	conn := f.dial(t, session.ID, token)
	next(t, conn)

	errorText := func(raw json.RawMessage) string {
		var body map[string]string
		require.NoError(t, json.Unmarshal(raw, &body))
		return body["error"]
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "invalid message", errorText(await(t, conn, service.MsgError, nil)))

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "bogus"}))
	assert.Contains(t, errorText(await(t, conn, service.MsgError, nil)), "unknown message type bogus")

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    ws.MsgUpdateAnswer,
		"payload": ws.UpdateAnswerPayload{QuestionID: "nope", Text: "whatever"},
	}))
	assert.Contains(t, errorText(await(t, conn, service.MsgError, nil)), "question not found")
}

func TestWebsocketAuthorization(t *testing.T) {
	f := newAPIFixture(t)
	owner := f.login(t)
	stranger := f.login(t)
	session := f.createSession(t, owner)

	assert.Equal(t, http.StatusUnauthorized, dialStatus(t, f.wsURL(session.ID, ""), nil))
	assert.Equal(t, http.StatusUnauthorized, dialStatus(t, f.wsURL(session.ID, "garbage"), nil))
	assert.Equal(t, http.StatusForbidden, dialStatus(t, f.wsURL(session.ID, stranger), nil))
	assert.Equal(t, http.StatusNotFound, dialStatus(t, f.wsURL("missing", owner), nil))
}

func TestWebsocketChecksOrigin(t *testing.T) {
	f := newAPIFixtureWithOrigins(t, "https://app.example")
	token := f.login(t)
	session := f.createSession(t, token)

	assert.Equal(t, http.StatusForbidden,
		dialStatus(t, f.wsURL(session.ID, token), http.Header{"Origin": {"https://evil.example"}}))
	assert.Equal(t, http.StatusSwitchingProtocols,
		dialStatus(t, f.wsURL(session.ID, token), http.Header{"Origin": {"https://app.example"}}))
}

func TestWebsocketClosedOnTeardown(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)
	session := f.createSession(t, token)

	conn := f.dial(t, session.ID, token)
	next(t, conn)

	require.Equal(t, http.StatusNoContent, f.do(t, "DELETE", "/v1/sessions/"+session.ID, token, nil, nil))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure), err)
			return
		}
	}
}

func TestWebsocketUpgradeHeaderIsCaseInsensitive(t *testing.T) {
	f := newAPIFixture(t)
	token := f.login(t)
	session := f.createSession(t, token)

	raw, err := net.Dial("tcp", strings.TrimPrefix(f.server.URL, "http://"))
	require.NoError(t, err)
	defer raw.Close()

	fmt.Fprintf(raw, "GET /v1/ws/sessions/%s?token=%s HTTP/1.1\r\n"+
		"Host: example\r\n"+
		"Upgrade: WebSocket\r\n"+
		"Connection: Upgrade\r\n"+
		"Sec-WebSocket-Version: 13\r\n"+
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n", session.ID, url.QueryEscape(token))

	require.NoError(t, raw.SetReadDeadline(time.Now().Add(2*time.Second)))
	resp, err := http.ReadResponse(bufio.NewReader(raw), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
}
