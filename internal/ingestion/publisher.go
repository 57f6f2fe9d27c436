package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"VaultCore/internal/event"
)

// AuditPublisher publishes audit events to NATS for downstream
// consumers. Subjects follow vault.audit.events.{event_type}. Publish
// failures are non-fatal; consumers can recover from the durable log
// in Postgres.
type AuditPublisher struct {
	js        jetstream.JetStream
	inputChan <-chan event.Envelope
	log       zerolog.Logger
}

func NewAuditPublisher(js jetstream.JetStream, inputChan <-chan event.Envelope, log zerolog.Logger) *AuditPublisher {
	return &AuditPublisher{js: js, inputChan: inputChan, log: log}
}

// Run drains the publish channel until ctx is cancelled or the channel
// closes.
func (p *AuditPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case env, ok := <-p.inputChan:
			if !ok {
				return nil
			}

			if err := p.publish(ctx, env); err != nil {
				p.log.Warn().Int64("sequence", env.Sequence).Err(err).Msg("audit publish failed")
			}
		}
	}
}

func (p *AuditPublisher) publish(ctx context.Context, env event.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	subject := fmt.Sprintf("vault.audit.events.%s", strings.ToLower(env.Type.String()))
	_, err = p.js.Publish(ctx, subject, data)
	return err
}
