package upload

// MessageSender sends a message to the broker queue
type MessageSender interface {
	Send(msg interface{}, queue string) error
}
