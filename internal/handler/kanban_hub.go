package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// BoardMessage is pushed to subscribers whenever a board changes
type BoardMessage struct {
	Type  string              `json:"type"`
	Board *dto.KanbanResponse `json:"board"`
}

type boardSubscriber struct {
	conn     *websocket.Conn
	send     chan []byte
	kanbanID uuid.UUID
	userID   uuid.UUID
}

// KanbanHub fans board updates out to the websocket subscribers of each kanban.
// It satisfies service.BoardBroadcaster.
type KanbanHub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*boardSubscriber]bool
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewKanbanHub creates an empty hub
func NewKanbanHub(logger *zap.Logger, m *metrics.Metrics) *KanbanHub {
	return &KanbanHub{
		clients: make(map[uuid.UUID]map[*boardSubscriber]bool),
		logger:  logger,
		metrics: m,
	}
}

// Broadcast sends the board to every subscriber of the kanban.
// Subscribers whose buffer is full are dropped.
func (h *KanbanHub) Broadcast(kanbanID uuid.UUID, board *dto.KanbanResponse) {
	data, err := json.Marshal(BoardMessage{Type: "board", Board: board})
	if err != nil {
		h.logger.Error("Failed to encode board", zap.String("kanban_id", kanbanID.String()), zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*boardSubscriber
	for sub := range h.clients[kanbanID] {
		select {
		case sub.send <- data:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.logger.Warn("Dropping slow kanban subscriber",
			zap.String("kanban_id", kanbanID.String()),
			zap.String("user_id", sub.userID.String()))
		h.remove(sub)
	}
}

// Subscribers returns the number of live connections on a kanban
func (h *KanbanHub) Subscribers(kanbanID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[kanbanID])
}

// subscribe registers sub and queues its first board while broadcasts are
// held back. A save that lands during load is either in the snapshot or
// pushed after it.
func (h *KanbanHub) subscribe(sub *boardSubscriber, load func() (*dto.KanbanResponse, error)) error {
	h.mu.Lock()
	board, err := load()
	if err != nil {
		h.mu.Unlock()
		return err
	}
	snapshot, err := json.Marshal(BoardMessage{Type: "board", Board: board})
	if err != nil {
		h.mu.Unlock()
		return err
	}
	sub.send <- snapshot
	if h.clients[sub.kanbanID] == nil {
		h.clients[sub.kanbanID] = make(map[*boardSubscriber]bool)
	}
	h.clients[sub.kanbanID][sub] = true
	h.mu.Unlock()

	h.metrics.AddKanbanSubscribers(1)
	h.logger.Debug("Kanban subscriber registered",
		zap.String("kanban_id", sub.kanbanID.String()),
		zap.String("user_id", sub.userID.String()))
	return nil
}

// remove is safe to call more than once for the same subscriber
func (h *KanbanHub) remove(sub *boardSubscriber) {
	h.mu.Lock()
	subs, ok := h.clients[sub.kanbanID]
	if !ok || !subs[sub] {
		h.mu.Unlock()
		return
	}
	delete(subs, sub)
	close(sub.send)
	if len(subs) == 0 {
		delete(h.clients, sub.kanbanID)
	}
	h.mu.Unlock()

	h.metrics.AddKanbanSubscribers(-1)
	h.logger.Debug("Kanban subscriber unregistered",
		zap.String("kanban_id", sub.kanbanID.String()),
		zap.String("user_id", sub.userID.String()))
}

// readPump only services control frames; subscribers never write boards over the socket
func (h *KanbanHub) readPump(sub *boardSubscriber) {
	defer func() {
		h.remove(sub)
		sub.conn.Close()
	}()

	sub.conn.SetReadLimit(maxMessageSize)
	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		sub.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("Kanban websocket error", zap.Error(err))
			}
			return
		}
	}
}

func (h *KanbanHub) writePump(sub *boardSubscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case message, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
