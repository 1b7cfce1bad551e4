package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/gadicohen93/deepcurrent/protocol"
)

const writeTimeout = 10 * time.Second

// Hub fans evolution and episode events out to websocket subscribers. A
// connection subscribed to a topic receives that topic's events; the empty
// topic ID subscribes to everything.
type Hub struct {
	mu   sync.RWMutex
	subs map[*websocket.Conn]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*websocket.Conn]map[string]struct{})}
}

func (h *Hub) Subscribe(conn *websocket.Conn, topicID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[conn] == nil {
		h.subs[conn] = make(map[string]struct{})
	}
	h.subs[conn][topicID] = struct{}{}
	slog.Info("ws: subscribed", "topic_id", topicID)
}

func (h *Hub) Unsubscribe(conn *websocket.Conn, topicID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if topics, ok := h.subs[conn]; ok {
		delete(topics, topicID)
	}
}

func (h *Hub) Drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, conn)
}

// Broadcast sends an envelope to every connection subscribed to its topic.
func (h *Hub) Broadcast(env *protocol.Envelope) {
	data, err := env.Encode()
	if err != nil {
		slog.Error("ws: encode broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn, topics := range h.subs {
		_, all := topics[""]
		_, specific := topics[env.TopicID]
		if !all && !specific {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			slog.Warn("ws: broadcast write failed", "error", err)
		}
	}
}

// EpisodeFinished announces a terminal episode to the topic's subscribers.
func (h *Hub) EpisodeFinished(ep *domain.Episode) {
	body := protocol.EpisodeFinished{
		EpisodeID:       ep.ID,
		TopicID:         ep.TopicID,
		StrategyVersion: ep.StrategyVersion,
		Status:          ep.Status,
	}
	h.Broadcast(protocol.NewEnvelope(ep.TopicID, protocol.TypeEpisodeFinished, body))
}

// StrategyPromoted announces a manual promotion to the topic's subscribers.
func (h *Hub) StrategyPromoted(topicID string, version int) {
	body := protocol.StrategyPromoted{TopicID: topicID, Version: version}
	h.Broadcast(protocol.NewEnvelope(topicID, protocol.TypeStrategyPromoted, body))
}

// EvolutionApplied implements evolution.EventSink.
func (h *Hub) EvolutionApplied(entry *domain.EvolutionEntry) {
	body := protocol.EvolutionApplied{
		TopicID:     entry.TopicID,
		FromVersion: entry.FromVersion,
		ToVersion:   entry.ToVersion,
		Reason:      entry.Reason,
	}
	if entry.Metrics != nil {
		body.SaveRate = entry.Metrics.SaveRate
		body.SampleSize = entry.Metrics.SampleSize
	}
	h.Broadcast(protocol.NewEnvelope(entry.TopicID, protocol.TypeEvolutionApplied, body))
}

type WSHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws: upgrade failed", "error", err)
		return
	}
	defer func() {
		h.hub.Drop(conn)
		conn.Close()
	}()

	// Subscribed to everything by default; clients narrow with subscribe
	// messages.
	h.hub.Subscribe(conn, "")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			slog.Warn("ws: bad envelope", "error", err)
			h.writeError(conn, "bad_envelope", "could not decode envelope")
			continue
		}

		switch env.Type {
		case protocol.TypeSubscribe:
			sub, err := protocol.DecodeBody[protocol.Subscribe](env)
			if err != nil {
				h.writeError(conn, "bad_body", "could not decode subscribe body")
				continue
			}
			h.hub.Unsubscribe(conn, "")
			h.hub.Subscribe(conn, sub.TopicID)
			h.write(conn, protocol.NewEnvelope(sub.TopicID, protocol.TypeSubscribeAck, nil))
		case protocol.TypeUnsubscribe:
			sub, err := protocol.DecodeBody[protocol.Subscribe](env)
			if err != nil {
				h.writeError(conn, "bad_body", "could not decode unsubscribe body")
				continue
			}
			h.hub.Unsubscribe(conn, sub.TopicID)
			h.write(conn, protocol.NewEnvelope(sub.TopicID, protocol.TypeUnsubscribeAck, nil))
		default:
			h.writeError(conn, "unknown_type", "unsupported message type")
		}
	}
}

func (h *WSHandler) writeError(conn *websocket.Conn, code, message string) {
	h.write(conn, protocol.NewEnvelope("", protocol.TypeError,
		protocol.Error{Code: code, Message: message}))
}

func (h *WSHandler) write(conn *websocket.Conn, env *protocol.Envelope) {
	data, err := env.Encode()
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		slog.Warn("ws: write failed", "error", err)
	}
}
