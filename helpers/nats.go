package helpers

import (
	"encoding/json"

	"github.com/Gravitalia/forum/model"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher sends notification messages to subscribers
type Publisher interface {
	Publish(subject string, message model.Message)
}

// NATS publishes messages on a NATS connection
type NATS struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// InitNATS starts a new NATS instance. An empty url or a
// connection failure gives a publisher that only logs.
func InitNATS(url string, logger *zap.Logger) *NATS {
	n := &NATS{logger: logger}
	if url == "" {
		return n
	}

	connection, err := nats.Connect(url, nats.Name("forum"))
	if err != nil {
		logger.Warn("cannot connect to NATS", zap.String("url", url), zap.Error(err))
		return n
	}

	n.conn = connection
	return n
}

// Publish allows publishing message on NATS
func (n *NATS) Publish(subject string, message model.Message) {
	if n.conn == nil {
		n.logger.Debug("NATS disabled, message dropped", zap.String("subject", subject), zap.String("type", message.Type))
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		n.logger.Error("cannot encode message", zap.Error(err))
		return
	}

	if err := n.conn.Publish(subject, data); err != nil {
		n.logger.Error("failed to send message", zap.String("subject", subject), zap.Error(err))
	}
}

// Close drains the connection
func (n *NATS) Close() {
	if n.conn != nil {
		_ = n.conn.Drain()
	}
}
