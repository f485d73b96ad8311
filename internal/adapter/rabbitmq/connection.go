package rabbitmq

import (
	"errors"
	"fmt"
	"sync"

	"github.com/YelzhanWeb/prepboard/internal/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ChangesExchange fans item status changes out to every kitchen board.
const ChangesExchange = "kitchen_changes"

var ErrConnectionClosed = errors.New("rabbitmq connection closed")

// Connection hands out channels on a broker link that survives broker
// restarts. Close is final.
type Connection interface {
	Channel() (Channel, error)
	Close() error
	NotifyClose() <-chan *amqp.Error
	IsClosed() bool
}

type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
	NotifyClose() <-chan *amqp.Error
}

type Queue struct {
	Name      string
	Messages  int
	Consumers int
}

// session is one dialled AMQP connection. A dropped session is replaced,
// never reused.
type session interface {
	Channel() (Channel, error)
	IsClosed() bool
	Close() error
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
}

type dialFunc func(url string) (session, error)

type brokerConnection struct {
	url  string
	dial dialFunc

	mu     sync.RWMutex
	sess   session
	closed bool
}

func Connect(cfg config.RabbitMQConfig) (Connection, error) {
	return connect(URL(cfg), dialAMQP)
}

func connect(url string, dial dialFunc) (*brokerConnection, error) {
	sess, err := dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return &brokerConnection{url: url, dial: dial, sess: sess}, nil
}

// URL builds the AMQP connection string for cfg.
func URL(cfg config.RabbitMQConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.User, cfg.Password, cfg.Host, cfg.Port)
}

// Channel opens a channel, dialling the broker again first if it dropped the
// previous connection.
func (c *brokerConnection) Channel() (Channel, error) {
	sess, err := c.live()
	if err != nil {
		return nil, err
	}

	ch, err := sess.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return ch, nil
}

func (c *brokerConnection) live() (session, error) {
	c.mu.RLock()
	sess, closed := c.sess, c.closed
	c.mu.RUnlock()

	if closed {
		return nil, ErrConnectionClosed
	}
	if !sess.IsClosed() {
		return sess, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectionClosed
	}
	// another caller may have redialled while we waited
	if !c.sess.IsClosed() {
		return c.sess, nil
	}

	sess, err := c.dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to reconnect to RabbitMQ: %w", err)
	}
	c.sess = sess
	return sess, nil
}

func (c *brokerConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if !c.sess.IsClosed() {
		return c.sess.Close()
	}
	return nil
}

// NotifyClose fires when the current broker connection drops.
func (c *brokerConnection) NotifyClose() <-chan *amqp.Error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess.NotifyClose(make(chan *amqp.Error, 1))
}

// IsClosed reports a dropped link until the next Channel call redials it.
func (c *brokerConnection) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed || c.sess.IsClosed()
}

type amqpSession struct {
	*amqp.Connection
}

func dialAMQP(url string) (session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpSession{conn}, nil
}

func (s amqpSession) Channel() (Channel, error) {
	ch, err := s.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return &amqpChannel{ch: ch}, nil
}

type amqpChannel struct {
	ch *amqp.Channel
}

func (ch *amqpChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return ch.ch.ExchangeDeclare(name, kind, durable, autoDelete, internal, noWait, args)
}

func (ch *amqpChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error) {
	q, err := ch.ch.QueueDeclare(name, durable, autoDelete, exclusive, noWait, args)
	if err != nil {
		return Queue{}, err
	}
	return Queue{Name: q.Name, Messages: q.Messages, Consumers: q.Consumers}, nil
}

func (ch *amqpChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return ch.ch.QueueBind(name, key, exchange, noWait, args)
}

func (ch *amqpChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return ch.ch.Publish(exchange, key, mandatory, immediate, msg)
}

func (ch *amqpChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return ch.ch.Consume(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
}

func (ch *amqpChannel) Close() error {
	return ch.ch.Close()
}

func (ch *amqpChannel) NotifyClose() <-chan *amqp.Error {
	return ch.ch.NotifyClose(make(chan *amqp.Error, 1))
}
