package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/ragchat/internal/models"
)

// fakeTransport returns a canned response document and records what it
// was asked.
type fakeTransport struct {
	raw      string
	messages []models.Message
}

func (f *fakeTransport) Send(ctx context.Context, messages []models.Message, source *models.DataSource) (string, error) {
	f.messages = messages
	return f.raw, nil
}

const fakeResponse = `{
	"choices": [
		{
			"message": {
				"content": "The Plus plan covers dental.",
				"context": {
					"citations": [
						{"title": "Northwind Health Plus", "filepath": "docs/health-plus.pdf", "content": "Coverage details..."},
						{"filepath": "docs/standard.pdf"}
					]
				}
			}
		}
	]
}`

func dial(t *testing.T, srv *WSServer) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(srv.handleWebSocket))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestQueryRoundTrip(t *testing.T) {
	transport := &fakeTransport{raw: fakeResponse}
	srv := NewWSServer(transport, nil, "You are a test assistant.")
	conn := dial(t, srv)

	err := conn.WriteJSON(Message{Type: "query", Content: "Does the Plus plan cover dental?"})
	require.NoError(t, err)

	var response Message
	require.NoError(t, conn.ReadJSON(&response))
	assert.Equal(t, "response", response.Type)
	assert.Equal(t, "The Plus plan covers dental.", response.Content)

	var citations Message
	require.NoError(t, conn.ReadJSON(&citations))
	assert.Equal(t, "citations", citations.Type)
	assert.Equal(t, "2 citations", citations.Content)

	payload, ok := citations.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, payload, 2)

	first, ok := payload[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Northwind Health Plus", first["title"])

	// A citation without a title surfaces its file path.
	second, ok := payload[1].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "docs/standard.pdf", second["title"])

	// The system prompt leads the conversation sent to the transport.
	require.NotEmpty(t, transport.messages)
	assert.Equal(t, models.RoleSystem, transport.messages[0].Role)
	assert.Equal(t, "You are a test assistant.", transport.messages[0].Content)
}

func TestNonQueryFrameRejected(t *testing.T) {
	srv := NewWSServer(&fakeTransport{raw: fakeResponse}, nil, "system")
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(Message{Type: "ping"}))

	var response Message
	require.NoError(t, conn.ReadJSON(&response))
	assert.Equal(t, "error", response.Type)
}

func TestHistoryGrowsAcrossQueries(t *testing.T) {
	transport := &fakeTransport{raw: fakeResponse}
	srv := NewWSServer(transport, nil, "system")
	conn := dial(t, srv)

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteJSON(Message{Type: "query", Content: "question"}))

		var response, citations Message
		require.NoError(t, conn.ReadJSON(&response))
		require.NoError(t, conn.ReadJSON(&citations))
	}

	// system + (user, assistant) from the first turn + user from the second.
	assert.Len(t, transport.messages, 4)
}
