package status

import (
	"sync"
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"bitbucket.org/airenas/subtitler/internal/pkg/status"
	"github.com/pkg/errors"
)

//WsConn is interface for websocket handling in status service
type WsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
}

const writeTimeout = 10 * time.Second

// connHub keeps subscriptions: each connection listens for one job ID
type connHub struct {
	m               sync.Mutex
	wm              sync.Mutex // serializes writes
	idConnectionMap map[string]map[WsConn]bool
	connectionIDMap map[WsConn]string
}

func newConnHub() *connHub {
	return &connHub{idConnectionMap: make(map[string]map[WsConn]bool), connectionIDMap: make(map[WsConn]string)}
}

func (h *connHub) handleConnection(conn WsConn) {
	defer h.deleteConnection(conn)
	defer conn.Close()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			cmdapp.Log.Debugf("ws read finished: %v", err)
			break
		}
		h.saveConnection(conn, string(message))
	}
}

func (h *connHub) deleteConnection(conn WsConn) {
	h.m.Lock()
	defer h.m.Unlock()
	h.deleteConnectionNoSync(conn)
}

func (h *connHub) deleteConnectionNoSync(conn WsConn) {
	id, found := h.connectionIDMap[conn]
	if found {
		if conns, found := h.idConnectionMap[id]; found {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.idConnectionMap, id)
			}
		}
	}
	delete(h.connectionIDMap, conn)
}

func (h *connHub) saveConnection(conn WsConn, id string) {
	h.m.Lock()
	defer h.m.Unlock()
	h.deleteConnectionNoSync(conn)
	h.connectionIDMap[conn] = id
	conns, found := h.idConnectionMap[id]
	if !found {
		conns = map[WsConn]bool{}
		h.idConnectionMap[id] = conns
	}
	conns[conn] = true
	cmdapp.Log.Infof("Subscribed to %s, connections: %d", id, len(h.connectionIDMap))
}

func (h *connHub) count(id string) int {
	h.m.Lock()
	defer h.m.Unlock()
	return len(h.idConnectionMap[id])
}

//Notify sends the completed job status to subscribers.
//A connection that fails to take the message in writeTimeout is closed
func (h *connHub) Notify(res *status.Result) error {
	conns := h.connections(res.ID)
	if len(conns) == 0 {
		cmdapp.Log.Debugf("No connections found for %s", res.ID)
		return nil
	}
	h.wm.Lock()
	defer h.wm.Unlock()
	var err error
	for _, c := range conns {
		if wErr := write(c, res); wErr != nil {
			err = errors.Wrap(wErr, "can't write to websocket")
			c.Close()
		}
	}
	return err
}

func (h *connHub) connections(id string) []WsConn {
	h.m.Lock()
	defer h.m.Unlock()
	res := make([]WsConn, 0, len(h.idConnectionMap[id]))
	for c := range h.idConnectionMap[id] {
		res = append(res, c)
	}
	return res
}

func write(c WsConn, v interface{}) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.WriteJSON(v)
}
