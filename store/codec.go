package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pb33f/mataki/capture"
)

// Envelope is the stored form of an exchange. bodies carry their kind next to
// their data so they decode back into the right variant.
type Envelope struct {
	ID        string        `json:"id"`
	Method    string        `json:"method"`
	URL       string        `json:"url"`
	Proto     string        `json:"proto,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Request   Message       `json:"request"`
	Response  *Message      `json:"response,omitempty"`
	Fault     string        `json:"fault,omitempty"`
}

// Message holds either side of an exchange
type Message struct {
	StatusCode    int             `json:"statusCode,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Proto         string          `json:"proto,omitempty"`
	Headers       capture.Headers `json:"headers,omitempty"`
	ContentLength int64           `json:"contentLength"`
	ReceivedAt    time.Time       `json:"receivedAt,omitzero"`
	Body          BodyEnvelope    `json:"body"`
}

type BodyEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

var ErrUnknownBodyKind = errors.New("unknown body kind")

// Encode serializes an exchange into its stored JSON form
func Encode(exchange *capture.Exchange) ([]byte, error) {
	env := Envelope{
		ID:        exchange.ID,
		Method:    exchange.Method,
		URL:       exchange.URL,
		Proto:     exchange.Proto,
		StartedAt: exchange.StartedAt,
		Duration:  exchange.Duration,
		Fault:     exchange.FaultMessage,
	}
	if env.Fault == "" && exchange.Fault != nil {
		env.Fault = exchange.Fault.Error()
	}

	body, err := encodeBody(exchange.Request.Body)
	if err != nil {
		return nil, fmt.Errorf("request body: %w", err)
	}
	env.Request = Message{
		Headers:       exchange.Request.Headers,
		ContentLength: exchange.Request.ContentLength,
		Body:          body,
	}

	if resp := exchange.Response; resp != nil {
		body, err := encodeBody(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("response body: %w", err)
		}
		env.Response = &Message{
			StatusCode:    resp.StatusCode,
			Reason:        resp.Reason,
			Proto:         resp.Proto,
			Headers:       resp.Headers,
			ContentLength: resp.ContentLength,
			ReceivedAt:    resp.ReceivedAt,
			Body:          body,
		}
	}

	return json.Marshal(env)
}

// Decode restores an exchange from its stored JSON form. a recorded fault comes
// back as a plain error carrying the original message.
func Decode(data []byte) (*capture.Exchange, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode exchange: %w", err)
	}

	exchange := &capture.Exchange{
		ID:           env.ID,
		Method:       env.Method,
		URL:          env.URL,
		Proto:        env.Proto,
		StartedAt:    env.StartedAt,
		Duration:     env.Duration,
		FaultMessage: env.Fault,
		Phase:        capture.PhaseResponseCaptured,
	}

	body, err := decodeBody(env.Request.Body)
	if err != nil {
		return nil, fmt.Errorf("request body: %w", err)
	}
	exchange.Request = capture.RequestRecord{
		Headers:       env.Request.Headers,
		ContentLength: env.Request.ContentLength,
		Body:          body,
	}

	if env.Response != nil {
		body, err := decodeBody(env.Response.Body)
		if err != nil {
			return nil, fmt.Errorf("response body: %w", err)
		}
		exchange.Response = &capture.ResponseRecord{
			StatusCode:    env.Response.StatusCode,
			Reason:        env.Response.Reason,
			Proto:         env.Response.Proto,
			Headers:       env.Response.Headers,
			ContentLength: env.Response.ContentLength,
			ReceivedAt:    env.Response.ReceivedAt,
			Body:          body,
		}
	}

	if env.Fault != "" {
		exchange.Fault = errors.New(env.Fault)
		exchange.Phase = capture.PhaseFaulted
	}
	return exchange, nil
}

func encodeBody(body capture.Body) (BodyEnvelope, error) {
	if body == nil {
		body = capture.EmptyBody{}
	}
	env := BodyEnvelope{Kind: body.Kind().String()}
	if _, empty := body.(capture.EmptyBody); empty {
		return env, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return env, err
	}
	env.Data = data
	return env, nil
}

func decodeBody(env BodyEnvelope) (capture.Body, error) {
	switch env.Kind {
	case "", capture.KindEmpty.String():
		return capture.EmptyBody{}, nil
	case capture.KindText.String():
		return unmarshalBody[capture.TextBody](env.Data)
	case capture.KindRaw.String():
		return unmarshalBody[capture.RawBody](env.Data)
	case capture.KindMultipart.String():
		return unmarshalBody[capture.MultipartBody](env.Data)
	case capture.KindForm.String():
		return unmarshalBody[capture.FormBody](env.Data)
	case capture.KindImage.String():
		return unmarshalBody[capture.ImageBody](env.Data)
	case capture.KindFailed.String():
		return unmarshalBody[capture.FailedBody](env.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBodyKind, env.Kind)
	}
}

func unmarshalBody[T capture.Body](data []byte) (capture.Body, error) {
	var body T
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	return body, nil
}
