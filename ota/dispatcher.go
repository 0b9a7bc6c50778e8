package ota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// Dispatcher maps verbs to their configurations and runs the shared lifecycle:
// acquire transaction, validate, execute, then exactly one commit or
// rollback decided solely by the envelope's error state.
type Dispatcher struct {
	sharedSecret string
	begin        BeginFunc
	publisher    EventPublisher
	verbs        map[string]verbConfig
}

// NewDispatcher wires the dispatcher. publisher may be nil; events are then
// dropped.
func NewDispatcher(sharedSecret string, begin BeginFunc, publisher EventPublisher) *Dispatcher {
	return &Dispatcher{
		sharedSecret: sharedSecret,
		begin:        begin,
		publisher:    publisher,
		verbs:        verbTable(),
	}
}

// DecodeParams accepts both a directly-supplied parameter mapping and the
// API-Gateway-style envelope that nests a JSON-encoded string under "body".
func DecodeParams(payload []byte) (map[string]any, error) {
	var params map[string]any
	if err := json.Unmarshal(payload, &params); err != nil {
		return nil, fmt.Errorf("error decoding request: %w", err)
	}

	if wrapped, ok := params["body"].(string); ok {
		params = nil
		if err := json.Unmarshal([]byte(wrapped), &params); err != nil {
			return nil, fmt.Errorf("error decoding wrapped request body: %w", err)
		}
	}

	return params, nil
}

// MalformedPayload is the response body for requests that cannot be decoded
// at all. Still delivered with a 200 transport status.
func MalformedPayload() map[string]any {
	return map[string]any{
		"success": false,
		"errors":  []ErrorRecord{{Type: "api", Msg: msgAPIArguments}},
	}
}

// Dispatch runs one invocation end to end and returns the response payload.
// A verb with no table entry still goes through secret check and base
// validation; with all base parameters present and a valid secret it yields
// success with an empty payload.
func (d *Dispatcher) Dispatch(ctx context.Context, params map[string]any) map[string]any {
	envelope := NewEnvelope(params, d.sharedSecret)
	cfg := d.verbs[envelope.Verb()]

	log := logrus.WithField("verb", envelope.Verb())

	var tx Tx
	if cfg.needsDB {
		opened, err := d.begin(ctx)
		if err != nil {
			envelope.AddError(msgDriverError)
			log.WithError(err).Error("could not open a transaction")
		} else {
			tx = opened
		}
	}

	// The verb's extra parameters only join the required list when nothing
	// has failed yet; a secret mismatch keeps validation at the base set.
	if !envelope.IsError() {
		for _, param := range cfg.required {
			envelope.AddRequired(param)
		}
	}

	d.run(ctx, envelope, cfg, tx, log)

	if tx != nil {
		d.release(ctx, envelope, tx, log)
	}

	if !envelope.IsError() {
		d.publish(ctx, envelope, log)
	}

	payload := envelope.Payload()
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		log.WithField("payload", payload).Debug("response payload")
	}

	return payload
}

// run is the validate + execute phase. Failures never propagate: errors and
// panics alike end up as one generic error record.
func (d *Dispatcher) run(ctx context.Context, envelope *Envelope, cfg verbConfig, tx Tx, log *logrus.Entry) {
	defer func() {
		if r := recover(); r != nil {
			envelope.AddError(msgGeneric)
			log.WithField("panic", r).Errorf("verb execution panicked: %s", debug.Stack())
		}
	}()

	envelope.Validate()

	if envelope.IsError() || cfg.execute == nil || tx == nil {
		return
	}

	if err := cfg.execute(ctx, envelope, tx); err != nil {
		envelope.AddError(msgGeneric)
		log.WithError(err).Error("verb execution failed")
	}
}

// release makes the single commit-or-rollback decision. Commit failures are
// recorded, distinguishing driver-level errors from everything else, and
// never raised.
func (d *Dispatcher) release(ctx context.Context, envelope *Envelope, tx Tx, log *logrus.Entry) {
	if envelope.IsError() {
		if err := tx.Rollback(ctx); err != nil {
			log.WithError(err).Error("rollback failed")
		}
		return
	}

	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			envelope.AddError(msgDriverError)
			log.WithError(err).WithField("code", pgErr.Code).Error("commit failed")
		} else {
			envelope.AddError(msgQueryError)
			log.WithError(err).Error("commit failed")
		}
	}
}

// publish sends queued domain events after the commit. Best effort only; a
// publish failure never touches the response.
func (d *Dispatcher) publish(ctx context.Context, envelope *Envelope, log *logrus.Entry) {
	if d.publisher == nil {
		return
	}

	for _, event := range envelope.Events() {
		if err := d.publisher.Publish(ctx, event); err != nil {
			log.WithError(err).Errorf("could not publish %T", event)
		}
	}
}
