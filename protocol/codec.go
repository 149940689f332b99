package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrMissingType  = errors.New("message has no type")
)

// DecodeType peeks at the "type" discriminator without decoding the rest.
func DecodeType(b []byte) (string, error) {
	if len(b) == 0 {
		return "", ErrEmptyMessage
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return "", fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return "", ErrMissingType
	}
	return env.Type, nil
}

// Decode unmarshals a full message of type T.
func Decode[T any](b []byte) (T, error) {
	var out T
	if len(b) == 0 {
		return out, ErrEmptyMessage
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode %T: %w", out, err)
	}
	return out, nil
}

// Encode marshals msg, which must carry its own type field.
func Encode(msg any) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("trying to encode nil message")
	}
	return json.Marshal(msg)
}

// MustEncode is Encode for messages built from known-good values.
func MustEncode(msg any) []byte {
	b, err := Encode(msg)
	if err != nil {
		panic(err)
	}
	return b
}
