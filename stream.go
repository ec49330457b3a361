package main

import (
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi"
	"github.com/gorilla/websocket"

	"github.com/clayxrex/stepperd/motor"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// PositionBroadcast fans position updates out to websocket subscribers.
// Publish is called from the motor's motion goroutine and must never block
// it; slow subscribers miss intermediate positions, not final ones.
type PositionBroadcast struct {
	mu   sync.Mutex
	subs map[chan motor.State]struct{}
}

func NewPositionBroadcast() *PositionBroadcast {
	return &PositionBroadcast{
		subs: make(map[chan motor.State]struct{}),
	}
}

func (b *PositionBroadcast) Publish(state motor.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub <- state:
		default:
			// drain the stale update so the latest one fits
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- state:
			default:
			}
		}
	}
}

func (b *PositionBroadcast) Subscribe() chan motor.State {
	sub := make(chan motor.State, 1)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub] = struct{}{}
	return sub
}

func (b *PositionBroadcast) Unsubscribe(sub chan motor.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, sub)
}

// PositionStreamHandler upgrades to a websocket and pushes the motor's
// position as JSON after every pulse until the client goes away.
func PositionStreamHandler(w http.ResponseWriter, r *http.Request) {
	worker, ok := ENV.Workers[chi.URLParam(r, "name")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer conn.Close()

	sub := worker.Positions.Subscribe()
	defer worker.Positions.Unsubscribe(sub)

	// current state first so clients do not wait for the next motion
	if err := conn.WriteJSON(worker.State()); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		// the read pump only notices disconnects; clients send nothing
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case state := <-sub:
			if err := conn.WriteJSON(state); err != nil {
				log.Println("write:", err)
				return
			}
		case <-closed:
			return
		}
	}
}
