package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/xhad/ragchat/internal/models"
	"github.com/xhad/ragchat/internal/types"
	"github.com/xhad/ragchat/pkg/chat"
	"github.com/xhad/ragchat/pkg/citation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is one frame on the wire, in either direction.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// citationPayload is the structured citation shape sent to clients.
type citationPayload struct {
	Title    string `json:"title"`
	FilePath string `json:"filepath,omitempty"`
	Preview  string `json:"preview,omitempty"`
}

// WSServer exposes the RAG chat flow over a WebSocket endpoint.
// Conversation history lives for the life of each connection.
type WSServer struct {
	client       types.ChatTransport
	parser       types.CitationParser
	source       *models.DataSource
	systemPrompt string
}

func NewWSServer(client types.ChatTransport, source *models.DataSource, systemPrompt string) *WSServer {
	return &WSServer{
		client:       client,
		parser:       citation.NewParser(),
		source:       source,
		systemPrompt: systemPrompt,
	}
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	history := []models.Message{{Role: models.RoleSystem, Content: s.systemPrompt}}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("Error reading message: %v", err)
			break
		}

		if msg.Type != "query" || msg.Content == "" {
			s.sendMessage(conn, "error", "expected a query message")
			continue
		}

		history = s.handleQuery(conn, history, msg.Content)
	}
}

// handleQuery runs one request/response cycle and returns the updated
// history. A failed request leaves history unchanged.
func (s *WSServer) handleQuery(conn *websocket.Conn, history []models.Message, query string) []models.Message {
	history = append(history, models.Message{Role: models.RoleUser, Content: query})

	raw, err := s.client.Send(context.Background(), history, s.source)
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("Error: %v", err))
		return history[:len(history)-1]
	}

	answer, err := chat.ExtractAnswer(raw)
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("Error: %v", err))
		return history[:len(history)-1]
	}

	s.sendMessage(conn, "response", answer)

	if citations := s.parser.ParseCitations(raw); len(citations) > 0 {
		payload := make([]citationPayload, 0, len(citations))
		for _, c := range citations {
			payload = append(payload, citationPayload{
				Title:    c.DisplayTitle(),
				FilePath: c.FilePath,
				Preview:  citation.TruncateContent(c.Content, citation.DefaultMaxContentLength),
			})
		}
		s.send(conn, Message{
			Type:    "citations",
			Content: fmt.Sprintf("%d citations", len(payload)),
			Data:    payload,
		})
	}

	return append(history, models.Message{Role: models.RoleAssistant, Content: answer})
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msgType string, content string) {
	s.send(conn, Message{Type: msgType, Content: content})
}

func (s *WSServer) send(conn *websocket.Conn, msg Message) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// Run serves the gateway until the listener fails.
func Run(addr string, client types.ChatTransport, source *models.DataSource, systemPrompt string) error {
	srv := NewWSServer(client, source, systemPrompt)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	log.Printf("Starting WebSocket gateway on %s", addr)
	return http.ListenAndServe(addr, mux)
}
