package rabbit

import (
	"encoding/json"
	"sync"

	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

//Sender publishes messages to durable rabbit mq queues
type Sender struct {
	ChannelProvider *ChannelProvider
	declared        map[string]bool
	m               sync.Mutex
}

//NewSender initializes rabbit sender
func NewSender(provider *ChannelProvider) *Sender {
	return &Sender{ChannelProvider: provider, declared: make(map[string]bool)}
}

//Send sends the message, declares the queue on first use
func (sender *Sender) Send(msg interface{}, queue string) error {
	qName := sender.ChannelProvider.QueueName(queue)
	b, err := getBytes(msg)
	if err != nil {
		return errors.Wrap(err, "can't marshal message")
	}
	cmdapp.Log.Infof("Sending message to %s", qName)
	err = sender.ChannelProvider.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
		if err := sender.declare(ch, qName); err != nil {
			return err
		}
		return ch.Publish(
			"", // exchange
			qName,
			false, // mandatory
			false,
			amqp.Publishing{
				DeliveryMode: amqp.Persistent,
				ContentType:  "application/json",
				Body:         b,
			})
	})
	if err != nil {
		sender.reset()
		return errors.Wrapf(err, "can't send message to %s", qName)
	}
	return nil
}

func (sender *Sender) declare(ch *amqp.Channel, qName string) error {
	sender.m.Lock()
	defer sender.m.Unlock()
	if sender.declared[qName] {
		return nil
	}
	if _, err := ch.QueueDeclare(qName, true, false, false, false, nil); err != nil {
		return errors.Wrapf(err, "can't declare %s", qName)
	}
	sender.declared[qName] = true
	return nil
}

func (sender *Sender) reset() {
	sender.m.Lock()
	defer sender.m.Unlock()
	sender.declared = make(map[string]bool)
}

func getBytes(msg interface{}) ([]byte, error) {
	if b, ok := msg.([]byte); ok {
		return b, nil
	}
	return json.Marshal(msg)
}
