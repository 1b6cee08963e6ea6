package rabbit

import (
	"sync"

	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

//ChannelProvider provides cached amqp channel
type ChannelProvider struct {
	url     string
	qPrefix string
	conn    *amqp.Connection
	ch      *amqp.Channel
	m       sync.Mutex
}

type runOnChannelFunc func(*amqp.Channel) error

//NewChannelProvider initializes channel provider from messageServer.* config
func NewChannelProvider() (*ChannelProvider, error) {
	url := cmdapp.Config.GetString("messageServer.url")
	if url == "" {
		return nil, errors.New("no broker url from messageServer.url")
	}
	user := cmdapp.Config.GetString("messageServer.user")
	pass := cmdapp.Config.GetString("messageServer.pass")
	if user != "" && pass == "" {
		return nil, errors.New("no broker pass from messageServer.pass")
	}
	return &ChannelProvider{url: makeURL(url, user, pass),
		qPrefix: cmdapp.Config.GetString("messageServer.queuePrefix")}, nil
}

func makeURL(url, user, pass string) string {
	res := "amqp://"
	if user != "" {
		res = res + user + ":" + pass + "@"
	}
	return res + url
}

//Channel returns cached channel or connects to the broker
func (pr *ChannelProvider) Channel() (*amqp.Channel, error) {
	pr.m.Lock()
	defer pr.m.Unlock()

	if pr.ch != nil {
		return pr.ch, nil
	}
	conn, err := amqp.Dial(pr.url)
	if err != nil {
		return nil, errors.Wrap(err, "can't connect to rabbit broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "can't create channel")
	}
	pr.conn = conn
	pr.ch = ch
	return pr.ch, nil
}

//RunOnChannelWithRetry invokes f, on failure reconnects and invokes f again
func (pr *ChannelProvider) RunOnChannelWithRetry(f runOnChannelFunc) error {
	ch, err := pr.Channel()
	if err != nil {
		return errors.Wrap(err, "can't init channel")
	}
	err = f(ch)
	if err != nil {
		cmdapp.Log.Infof("Retry opening channel")
		pr.Close()
		ch, err = pr.Channel()
		if err != nil {
			return errors.Wrap(err, "can't init channel")
		}
		err = f(ch)
	}
	return err
}

//QueueName returns the queue name with the configured prefix
func (pr *ChannelProvider) QueueName(name string) string {
	if pr.qPrefix == "" || name == "" {
		return name
	}
	return pr.qPrefix + "_" + name
}

//Healthy checks the connection
func (pr *ChannelProvider) Healthy() error {
	if _, err := pr.Channel(); err != nil {
		return err
	}
	pr.m.Lock()
	defer pr.m.Unlock()
	if pr.conn == nil || pr.conn.IsClosed() {
		pr.ch = nil
		pr.conn = nil
		return errors.New("connection is closed")
	}
	return nil
}

//Close finalizes ChannelProvider
func (pr *ChannelProvider) Close() {
	pr.m.Lock()
	defer pr.m.Unlock()

	if pr.ch != nil {
		cmdapp.LogIf(pr.ch.Close())
	}
	if pr.conn != nil {
		cmdapp.LogIf(pr.conn.Close())
	}
	pr.ch = nil
	pr.conn = nil
}
