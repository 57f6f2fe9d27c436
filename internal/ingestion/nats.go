// Package ingestion is the vault's command surface. Commands arrive on
// NATS JetStream subjects, are parsed into typed commands, and are
// applied to the vault on a single command loop goroutine.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

const (
	CommandStream = "VAULT_COMMANDS"
	AuditStream   = "VAULT_AUDIT"
)

// Subscriber feeds raw command messages into the command loop via
// rawChan.
type Subscriber struct {
	js        jetstream.JetStream
	rawChan   chan<- RawCommand
	consumers []jetstream.ConsumeContext
	log       zerolog.Logger
}

// RawCommand is a parsed-but-untyped command from NATS, ready for the
// command loop to validate and apply.
type RawCommand struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	AckFunc   func()
	NakFunc   func()
}

// SubjectConfig maps NATS subjects to command types.
type SubjectConfig struct {
	Subject      string
	Command      string
	ConsumerName string
}

// DefaultSubjects returns the standard command subject configuration.
// Each command type has its own subject so producers can be scoped by
// subject-level permissions.
func DefaultSubjects() []SubjectConfig {
	return []SubjectConfig{
		{Subject: "vault.commands.deposit.native", Command: CmdDepositNative, ConsumerName: "vault-deposit-native"},
		{Subject: "vault.commands.deposit.token", Command: CmdDepositToken, ConsumerName: "vault-deposit-token"},
		{Subject: "vault.commands.withdraw", Command: CmdWithdraw, ConsumerName: "vault-withdraw"},
		{Subject: "vault.commands.roles.grant", Command: CmdGrantRole, ConsumerName: "vault-roles-grant"},
		{Subject: "vault.commands.roles.revoke", Command: CmdRevokeRole, ConsumerName: "vault-roles-revoke"},
		{Subject: "vault.commands.adapters.register", Command: CmdRegisterAdapter, ConsumerName: "vault-adapters-register"},
		{Subject: "vault.commands.adapters.remove", Command: CmdRemoveAdapter, ConsumerName: "vault-adapters-remove"},
		{Subject: "vault.commands.adapters.approve", Command: CmdApproveAdapter, ConsumerName: "vault-adapters-approve"},
		{Subject: "vault.commands.swap.execute", Command: CmdExecuteSwap, ConsumerName: "vault-swap-execute"},
	}
}

func NewSubscriber(js jetstream.JetStream, rawChan chan<- RawCommand, log zerolog.Logger) *Subscriber {
	return &Subscriber{js: js, rawChan: rawChan, log: log}
}

// Subscribe creates JetStream consumers for all configured subjects.
// Consumers use explicit ACK, max_deliver=5, ack_wait=30s.
func (s *Subscriber) Subscribe(ctx context.Context, subjects []SubjectConfig) error {
	for _, cfg := range subjects {
		consumer, err := s.js.CreateOrUpdateConsumer(ctx, CommandStream, jetstream.ConsumerConfig{
			Durable:       cfg.ConsumerName,
			FilterSubject: cfg.Subject,
			AckPolicy:     jetstream.AckExplicitPolicy,
			AckWait:       30 * time.Second,
			MaxDeliver:    5,
			DeliverPolicy: jetstream.DeliverAllPolicy,
		})
		if err != nil {
			return fmt.Errorf("create consumer %s: %w", cfg.ConsumerName, err)
		}

		cc, err := consumer.Consume(func(msg jetstream.Msg) {
			raw := RawCommand{
				Subject:   msg.Subject(),
				Data:      msg.Data(),
				Timestamp: time.Now(),
				AckFunc:   func() { msg.Ack() },
				NakFunc:   func() { msg.Nak() },
			}

			select {
			case s.rawChan <- raw:
			case <-ctx.Done():
				msg.Nak()
			}
		})
		if err != nil {
			return fmt.Errorf("consume %s: %w", cfg.ConsumerName, err)
		}

		s.consumers = append(s.consumers, cc)
		s.log.Info().Str("subject", cfg.Subject).Str("consumer", cfg.ConsumerName).Msg("subscribed")
	}

	return nil
}

// Stop gracefully stops all consumers.
func (s *Subscriber) Stop() {
	for _, cc := range s.consumers {
		cc.Stop()
	}
	s.log.Info().Msg("command subscribers stopped")
}

// EnsureStreams creates the command and audit streams if absent.
// Streams use FileStorage, retention=Limits, max_age=72h.
func EnsureStreams(ctx context.Context, js jetstream.JetStream) error {
	streams := []jetstream.StreamConfig{
		{
			Name:      CommandStream,
			Subjects:  []string{"vault.commands.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      AuditStream,
			Subjects:  []string{"vault.audit.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
	}

	for _, cfg := range streams {
		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
	}

	return nil
}

// ConnectNATS establishes a NATS connection and returns a JetStream
// context.
func ConnectNATS(url string, log zerolog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
