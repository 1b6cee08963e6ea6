package status

import (
	"bitbucket.org/airenas/subtitler/internal/pkg/messages"
	"bitbucket.org/airenas/subtitler/internal/pkg/status"
)

//MessageSender sends a message to the broker queue
type MessageSender interface {
	Send(msg interface{}, queue string) error
}

// eventSender publishes translated job ids
type eventSender struct {
	sender MessageSender
}

func newEventSender(sender MessageSender) *eventSender {
	return &eventSender{sender: sender}
}

func (s *eventSender) Notify(res *status.Result) error {
	return s.sender.Send(messages.NewQueueMessage(res.ID), messages.Translated)
}
