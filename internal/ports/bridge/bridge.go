// Package bridge connects the session service to a NATS bus. Game hosts
// publish newline-separated event batches on <subject>.events.<session>
// and read the answer on <subject>.decisions.<session>, or on the reply
// inbox when they use request-reply.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"janshi/internal/app"
	"janshi/internal/config"
	"janshi/internal/logx"
)

var ErrNotConnected = errors.New("bridge not connected")

// Bridge owns one NATS connection and one wildcard subscription; the
// session id rides in the subject's last token.
type Bridge struct {
	url     string
	subject string
	svc     *app.Service

	conn *nats.Conn
	sub  *nats.Subscription
}

func New(cfg config.Bridge, svc *app.Service) *Bridge {
	return &Bridge{url: cfg.URL, subject: cfg.Subject, svc: svc}
}

// Run connects and subscribes. It returns once the subscription is live;
// handling runs on the connection's delivery goroutine.
func (b *Bridge) Run(ctx context.Context) error {
	conn, err := nats.Connect(b.url,
		nats.Name("janshi"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return fmt.Errorf("bridge connect %s: %w", b.url, err)
	}
	b.conn = conn

	sub, err := conn.Subscribe(b.subject+".events.*", func(msg *nats.Msg) {
		b.handle(ctx, msg)
	})
	if err != nil {
		conn.Close()
		b.conn = nil
		return fmt.Errorf("bridge subscribe: %w", err)
	}
	b.sub = sub
	logx.Info("bridge listening on %s.events.*", b.subject)
	return nil
}

func (b *Bridge) handle(ctx context.Context, msg *nats.Msg) {
	session := msg.Subject[strings.LastIndexByte(msg.Subject, '.')+1:]
	rec, err := b.svc.ReactLines(ctx, session, msg.Data)
	if err != nil {
		logx.Warn("bridge session %s: %v", session, err)
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		logx.Warn("bridge session %s: encode record: %v", session, err)
		return
	}
	if msg.Reply != "" {
		if err := msg.Respond(payload); err != nil {
			logx.Warn("bridge session %s: respond: %v", session, err)
		}
		return
	}
	if err := b.Publish(session, payload); err != nil {
		logx.Warn("bridge session %s: publish: %v", session, err)
	}
}

// Publish sends a decision record for a session.
func (b *Bridge) Publish(session string, payload []byte) error {
	if b.conn == nil || !b.conn.IsConnected() {
		return ErrNotConnected
	}
	return b.conn.Publish(b.subject+".decisions."+session, payload)
}

// Close unsubscribes and closes the connection.
func (b *Bridge) Close() {
	if b.sub != nil {
		b.sub.Unsubscribe()
		b.sub = nil
	}
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}
