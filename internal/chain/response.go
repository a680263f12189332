package chain

import (
	"fmt"
	"strings"
)

type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

func NewEvent(typ string) Event {
	return Event{Type: typ}
}

// Add appends an attribute, formatting v with fmt.Sprint.
func (e Event) Add(key string, v any) Event {
	e.Attributes = append(e.Attributes, Attribute{Key: key, Value: fmt.Sprint(v)})
	return e
}

// Get returns the first value stored under key.
func (e Event) Get(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Response is what a handler returns: follow-up messages, events and flat attributes.
type Response struct {
	Messages   []Msg       `json:"-"`
	Events     []Event     `json:"events"`
	Attributes []Attribute `json:"attributes"`
}

func NewResponse() *Response {
	return &Response{}
}

func (r *Response) AddMessages(msgs ...Msg) *Response {
	r.Messages = append(r.Messages, msgs...)
	return r
}

func (r *Response) AddEvent(e Event) *Response {
	r.Events = append(r.Events, e)
	return r
}

func (r *Response) AddAttribute(key string, v any) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: fmt.Sprint(v)})
	return r
}

// Action returns the value of the "action" attribute.
func (r *Response) Action() string {
	for _, a := range r.Attributes {
		if a.Key == "action" {
			return a.Value
		}
	}
	return ""
}

// JoinIDs renders ids as the comma separated list used in events.
func JoinIDs(ids []uint64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprint(id))
	}
	return strings.Join(parts, ",")
}
