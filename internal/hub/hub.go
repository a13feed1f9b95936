package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/werewolf-arena/internal/room"
)

type HubMsg interface{ isHubMsg() }

type EnsureRoom struct {
	ID        string
	SeatCount int
	HumanSeat int
	Reply     chan *room.Room
}

type GetRoom struct {
	ID    string
	Reply chan *room.Room
}

type RemoveRoom struct {
	ID string
}

type ShutdownHub struct{}

func (EnsureRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Hub is the room registry: one actor owning the id -> room map, so
// concurrent ensure/get calls for the same id never race a double create.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				if r := h.rooms[msg.ID]; r != nil {
					msg.Reply <- r
					break
				}
				r := room.NewRoom(h.ctx, msg.ID, msg.SeatCount, msg.HumanSeat, h.log)
				h.rooms[msg.ID] = r
				h.log.Info("room created", zap.String("room", msg.ID), zap.Int("seats", msg.SeatCount))
				msg.Reply <- r

			case GetRoom:
				msg.Reply <- h.rooms[msg.ID] // may be nil

			case RemoveRoom:
				if r := h.rooms[msg.ID]; r != nil {
					r.Inbox() <- room.Shutdown{}
					delete(h.rooms, msg.ID)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, r := range h.rooms {
		r.Inbox() <- room.Shutdown{}
	}
	clear(h.rooms)
	h.cancel()
}
