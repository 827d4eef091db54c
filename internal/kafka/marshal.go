package kafka

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/segmentio/kafka-go"
)

// NewMessage builds a JSON message for topic. Headers are sorted by key so
// the same input always yields the same message.
func NewMessage(topic string, key []byte, v any, headers map[string]string) (kafka.Message, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode message for %s: %w", topic, err)
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	hs := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		hs = append(hs, kafka.Header{Key: k, Value: []byte(headers[k])})
	}
	return kafka.Message{Topic: topic, Key: key, Value: b, Headers: hs}, nil
}

// HeaderValue returns the first header named key, or "".
func HeaderValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Decode unmarshals a message value into T.
func Decode[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		return t, fmt.Errorf("decode message: %w", err)
	}
	return t, nil
}

// UnwrapPayload decodes the typed payload of an envelope.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
