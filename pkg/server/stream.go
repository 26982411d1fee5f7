package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gwillem/humanoid/pkg/robot"
	"github.com/gwillem/humanoid/pkg/servo"
)

const writeWait = time.Second

type streamMessage struct {
	Positions map[robot.JointName]float64 `json:"positions"`
	Released  []robot.JointName           `json:"released,omitempty"`
	Timestamp time.Time                   `json:"timestamp"`
}

func newStreamMessage(u servo.Update) streamMessage {
	msg := streamMessage{
		Positions: make(map[robot.JointName]float64, len(u.Positions)),
		Timestamp: u.Timestamp,
	}
	for _, name := range robot.AllJoints() {
		ch, _ := name.Channel()
		if angle, ok := u.Positions[ch]; ok {
			msg.Positions[name] = angle
		} else {
			msg.Released = append(msg.Released, name)
		}
	}
	return msg
}

// Broadcast fans controller updates out to stream subscribers until ctx is
// cancelled. It must be the only reader of the controller's Updates.
func (s *Server) Broadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-s.bot.Updates():
			s.subMu.Lock()
			for ch := range s.subs {
				select {
				case ch <- u:
				default:
					// subscriber is behind, replace its pending update
					select {
					case <-ch:
					default:
					}
					ch <- u
				}
			}
			s.subMu.Unlock()
		}
	}
}

func (s *Server) subscribe() chan servo.Update {
	ch := make(chan servo.Update, 1)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan servo.Update) {
	s.subMu.Lock()
	delete(s.subs, ch)
	s.subMu.Unlock()
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates := s.subscribe()
	defer s.unsubscribe(updates)

	// Reader goroutine notices the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(u servo.Update) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(newStreamMessage(u))
	}

	// Current state first so clients don't wait for the next move.
	if err := send(servo.Update{Positions: s.bot.Positions(), Timestamp: time.Now()}); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case u := <-updates:
			if err := send(u); err != nil {
				s.log.WithError(err).Debug("stream client gone")
				return
			}
		}
	}
}
