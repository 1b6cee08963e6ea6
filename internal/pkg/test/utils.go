package test

import (
	"sync"

	"bitbucket.org/airenas/subtitler/internal/pkg/messages"
)

//Msg is a sent message with its queue
type Msg struct {
	M *messages.QueueMessage
	Q string
}

//Sender records sent messages
type Sender struct {
	m    sync.Mutex
	Msgs []Msg
	Err  error
}

//Send records the message
func (sender *Sender) Send(m interface{}, q string) error {
	sender.m.Lock()
	defer sender.m.Unlock()
	if sender.Err != nil {
		return sender.Err
	}
	qm, _ := m.(*messages.QueueMessage)
	sender.Msgs = append(sender.Msgs, Msg{M: qm, Q: q})
	return nil
}

//Sent returns a copy of recorded messages
func (sender *Sender) Sent() []Msg {
	sender.m.Lock()
	defer sender.m.Unlock()
	return append([]Msg(nil), sender.Msgs...)
}

//ContainsMsg checks if a message with id was sent to queue q
func ContainsMsg(s []Msg, id, q string) bool {
	for _, a := range s {
		if a.M != nil && a.M.ID == id && a.Q == q {
			return true
		}
	}
	return false
}
