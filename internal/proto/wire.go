// Package proto holds the protobuf messages exchanged with the group
// service and the account service, encoded directly with protowire, plus
// the gRPC plumbing (codec and service descriptors) for the account service.
package proto

import (
	"bytes"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed reports bytes that do not decode as the expected message.
var ErrMalformed = errors.New("proto: malformed message")

// Message is implemented by every type in this package.
type Message interface {
	Marshal() []byte
	Unmarshal(b []byte) error
}

// skip tells unmarshalFields to step over a field it does not know.
const skip = -1

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// appendMessage always emits the field so that an empty sub-message still
// marks presence.
func appendMessage(b []byte, num protowire.Number, m Message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.Marshal())
}

func unmarshalFields(b []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		m, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if m == skip {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(m))
			}
		}
		b = b[m:]
	}
	return nil
}

func wrongType(num protowire.Number) error {
	return fmt.Errorf("%w: field %d has unexpected wire type", ErrMalformed, num)
}

func consumeBytes(num protowire.Number, typ protowire.Type, b []byte, dst *[]byte) (int, error) {
	if typ != protowire.BytesType {
		return 0, wrongType(num)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
	}
	*dst = bytes.Clone(v)
	return n, nil
}

func consumeString(num protowire.Number, typ protowire.Type, b []byte, dst *string) (int, error) {
	if typ != protowire.BytesType {
		return 0, wrongType(num)
	}
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return 0, fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
	}
	*dst = v
	return n, nil
}

func consumeUint32(num protowire.Number, typ protowire.Type, b []byte, dst *uint32) (int, error) {
	if typ != protowire.VarintType {
		return 0, wrongType(num)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
	}
	if v > uint64(^uint32(0)) {
		return 0, fmt.Errorf("%w: field %d overflows uint32", ErrMalformed, num)
	}
	*dst = uint32(v)
	return n, nil
}

func consumeMessage(num protowire.Number, typ protowire.Type, b []byte, m Message) (int, error) {
	var raw []byte
	n, err := consumeBytes(num, typ, b, &raw)
	if err != nil {
		return 0, err
	}
	if err := m.Unmarshal(raw); err != nil {
		return 0, err
	}
	return n, nil
}
