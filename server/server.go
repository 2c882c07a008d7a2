package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"reglex/internal/models"
	"reglex/internal/types"
	"reglex/pkg/pipeline"
	"reglex/pkg/retrieval"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the WebSocket envelope. Clients send "ingest" and "search"
// messages; the server replies with "status", "stored", "results" and
// "error" messages on the same connection.
type Message struct {
	Type    string          `json:"type"`
	Content string          `json:"content"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type outMessage struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// ingestRequest is the payload of an "ingest" message.
type ingestRequest struct {
	ID           string `json:"id"`
	Jurisdiction string `json:"jurisdiction"`
	Region       string `json:"region"`
	Title        string `json:"title"`
	Content      string `json:"content"`
}

type Server struct {
	ingestor *pipeline.Ingestor
	search   *retrieval.Service
	index    types.VectorIndex
	chunking pipeline.Config
}

func New(ingestor *pipeline.Ingestor, search *retrieval.Service, index types.VectorIndex, chunking pipeline.Config) *Server {
	return &Server{
		ingestor: ingestor,
		search:   search,
		index:    index,
		chunking: chunking,
	}
}

func (s *Server) Start(port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/jurisdictions", s.handleJurisdictions)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	log.Printf("Starting server on port %s", port)
	return http.ListenAndServe(":"+port, mux)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	results, err := s.search.Search(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, retrieval.ErrRegionRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, results)
}

func (s *Server) handleJurisdictions(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		http.Error(w, "region query parameter is required", http.StatusBadRequest)
		return
	}

	counts, err := s.search.ListJurisdictions(r.Context(), region)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, counts)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Error reading message: %v", err)
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		s.handleMessage(conn, msg)
	}
}

func (s *Server) handleMessage(conn *websocket.Conn, msg Message) {
	ctx := context.Background()

	switch msg.Type {
	case "ingest":
		var req ingestRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("invalid ingest payload: %v", err))
			return
		}

		s.sendMessage(conn, "status", fmt.Sprintf("Processing document %s", req.ID))

		count, err := s.ingestor.Ingest(ctx, models.Document{
			ID:           req.ID,
			Jurisdiction: req.Jurisdiction,
			Region:       req.Region,
			Title:        req.Title,
			Content:      req.Content,
		}, s.chunking)
		if err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Failed to ingest document: %v", err))
			return
		}

		s.sendData(conn, "stored", fmt.Sprintf("Stored %d chunks for %s", count, req.ID),
			map[string]interface{}{"document_id": req.ID, "chunk_count": count})

	case "search":
		var req models.SearchRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("invalid search payload: %v", err))
			return
		}

		results, err := s.search.Search(ctx, req)
		if err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Error querying chunks: %v", err))
			return
		}

		s.sendData(conn, "results", fmt.Sprintf("%d results", len(results)), results)

	default:
		s.sendMessage(conn, "error", fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func (s *Server) sendMessage(conn *websocket.Conn, msgType string, content string) {
	msg := outMessage{
		Type:    msgType,
		Content: content,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func (s *Server) sendData(conn *websocket.Conn, msgType string, content string, data interface{}) {
	msg := outMessage{
		Type:    msgType,
		Content: content,
		Data:    data,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
