// Package events publishes session lifecycle events for other services.
package events

import (
	"context"
	"errors"
	"time"
)

// Event types.
const (
	TypeLoaded            = "loaded"
	TypeStarted           = "started"
	TypeQuestionSwitched  = "question_switched"
	TypeAssistanceRefused = "assistance_refused"
	TypeRoundTransitioned = "round_transitioned"
)

type Event struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"session_id"`
	At        time.Time              `json:"at"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Publisher delivers events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several publishers and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
