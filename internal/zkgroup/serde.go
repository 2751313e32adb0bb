package zkgroup

import (
	"bytes"

	"github.com/google/uuid"
	"github.com/tchajed/marshal"
)

// Object tags. Every serialized object starts with its tag so one kind of
// blob can never be parsed as another.
const (
	tagGroupSecretParams uint64 = iota + 1
	tagAuthCredentialResponse
	tagAuthCredentialPresentation
	tagProfileKeyCredentialRequest
	tagProfileKeyCredentialResponse
	tagProfileKeyCredential
	tagProfileKeyCredentialPresentation
)

func writeSlice(b []byte, data []byte) []byte {
	b = marshal.WriteInt(b, uint64(len(data)))
	return marshal.WriteBytes(b, data)
}

func writeUUID(b []byte, id uuid.UUID) []byte {
	return marshal.WriteBytes(b, id[:])
}

// reader walks a serialized object and remembers the first failure, so
// decoders can read every field and check ok once at the end.
type reader struct {
	b  []byte
	ok bool
}

func newReader(b []byte, tag uint64) *reader {
	r := &reader{b: b, ok: true}
	if r.int() != tag {
		r.ok = false
	}
	return r
}

func (r *reader) int() uint64 {
	if !r.ok || len(r.b) < 8 {
		r.ok = false
		return 0
	}
	v, rest := marshal.ReadInt(r.b)
	r.b = rest
	return v
}

func (r *reader) fixed(n int) []byte {
	if !r.ok || len(r.b) < n {
		r.ok = false
		return nil
	}
	data, rest := marshal.ReadBytes(r.b, uint64(n))
	r.b = rest
	return bytes.Clone(data)
}

func (r *reader) slice() []byte {
	n := r.int()
	if !r.ok || uint64(len(r.b)) < n {
		r.ok = false
		return nil
	}
	return r.fixed(int(n))
}

func (r *reader) uuid() uuid.UUID {
	var id uuid.UUID
	copy(id[:], r.fixed(len(id)))
	return id
}

// done reports whether every read succeeded and no trailing bytes remain.
func (r *reader) done() bool {
	return r.ok && len(r.b) == 0
}
