package ota

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	ParamVerb             = "verb"
	ParamMyaPropertyID    = "mya_property_id"
	ParamOTAPropertyID    = "ota_property_id"
	ParamSharedSecret     = "shared_secret"
	ParamPropertyPassword = "ota_property_password"
	ParamBookingVersion   = "ota_booking_version"
	ParamBookingID        = "booking_id"
	ParamGUID             = "guid"
)

const (
	msgAuthArguments = "Invalid or missing authentication arguments"
	msgAPIArguments  = "Invalid or missing Api arguments"
	msgGeneric       = "Generic error"
	msgDriverError   = "Generic database error"
	msgQueryError    = "Application specific database error"
)

type ErrorRecord struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

// Envelope carries one request through the pipeline: the parameter map, the
// accumulated error records, the output fields and the required-parameter
// list (seeded with the three base parameters, extended per verb).
type Envelope struct {
	params   map[string]any
	data     map[string]any
	errors   []ErrorRecord
	required []string
	events   []any
}

// NewEnvelope strips the shared secret out of the parameter map and checks it
// against the configured value before any verb-specific logic runs. A
// mismatch, or an unset configured value, records an authentication error
// immediately.
func NewEnvelope(params map[string]any, sharedSecret string) *Envelope {
	if params == nil {
		params = map[string]any{}
	}

	supplied, _ := params[ParamSharedSecret].(string)
	delete(params, ParamSharedSecret)

	envelope := &Envelope{
		params:   params,
		data:     map[string]any{},
		required: []string{ParamVerb, ParamMyaPropertyID, ParamOTAPropertyID},
	}

	if sharedSecret == "" || supplied != sharedSecret {
		envelope.errors = append(envelope.errors, ErrorRecord{Type: "api", Msg: msgAuthArguments})
	}

	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		logrus.WithField("params", envelope.params).Debug("handling request")
	}

	return envelope
}

// Validate checks that every required parameter is present as a key. A null
// value counts as present. The first missing parameter records one error and
// stops the loop.
func (e *Envelope) Validate() bool {
	for _, param := range e.required {
		if _, ok := e.params[param]; !ok {
			e.AddError(msgAPIArguments)
			logrus.WithField("param", param).Error("request missing a parameter")
			return false
		}
	}
	return true
}

// AddError appends an error record. Errors accumulate; earlier records are
// never replaced.
func (e *Envelope) AddError(msg string) {
	e.errors = append(e.errors, ErrorRecord{Type: "api", Msg: msg})
}

// AddRequired extends the required-parameter list before validation runs.
func (e *Envelope) AddRequired(param string) {
	e.required = append(e.required, param)
}

func (e *Envelope) IsError() bool {
	return len(e.errors) > 0
}

func (e *Envelope) Verb() string {
	verb, _ := e.params[ParamVerb].(string)
	return verb
}

// Param returns the raw parameter value; ok reports whether the key exists.
func (e *Envelope) Param(name string) (any, bool) {
	v, ok := e.params[name]
	return v, ok
}

// StringParam coerces a parameter to a string; absent and null both yield "".
func (e *Envelope) StringParam(name string) string {
	v, ok := e.params[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Set stores an output field for the response payload.
func (e *Envelope) Set(key string, value any) {
	e.data[key] = value
}

// AddEvent queues a domain event for publication after a successful commit.
func (e *Envelope) AddEvent(event any) {
	e.events = append(e.events, event)
}

func (e *Envelope) Events() []any {
	return e.events
}

// Payload builds the response body: the output fields plus success, and the
// error records when any were accumulated.
func (e *Envelope) Payload() map[string]any {
	payload := make(map[string]any, len(e.data)+2)
	for k, v := range e.data {
		payload[k] = v
	}

	if e.IsError() {
		payload["success"] = false
		payload["errors"] = e.errors
	} else {
		payload["success"] = true
	}

	return payload
}
