// Package notify fans dealership alerts (new appointments, callbacks, opt-outs)
// out to staff email. Publishing never blocks the dialogue path; delivery
// failures are logged and dropped.
package notify

import (
	"context"
	"time"

	"github.com/cskr/pubsub"
	"go.uber.org/zap"
)

const alerts = "alerts"

type Alert struct {
	Subject string
	Body    string
}

type Notifier interface {
	//Publish enqueues an alert for background delivery
	Publish(subject, body string)
	//Stop drains the queue and stops the delivery worker
	Stop()
}

func NewNotifier(mailer Mailer) Notifier {
	ps := pubsub.New(100)
	n := &notifier{mailer: mailer, ps: ps, in: ps.Sub(alerts)}
	go n.deliver()
	return n
}

type notifier struct {
	mailer Mailer
	ps     *pubsub.PubSub
	in     chan interface{}
}

func (n *notifier) Publish(subject, body string) {
	n.ps.Pub(Alert{Subject: subject, Body: body}, alerts)
}

func (n *notifier) Stop() {
	n.ps.Shutdown()
}

func (n *notifier) deliver() {
	for val := range n.in {
		alert := val.(Alert)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := n.mailer.Send(ctx, alert.Subject, alert.Body); err != nil {
			zap.S().Warnw("failed to deliver alert email", "subject", alert.Subject, "error", err)
		}
		cancel()
	}
}

// NopNotifier discards alerts. Used when no mail credentials are configured.
func NopNotifier() Notifier {
	return nopNotifier{}
}

type nopNotifier struct{}

func (nopNotifier) Publish(subject, body string) {}
func (nopNotifier) Stop()                        {}
