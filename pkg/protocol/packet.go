package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// SectionsSeparator divides the header section from the payload.
	SectionsSeparator = "::"
	// HeaderSeparator divides a header name from its value.
	HeaderSeparator = '='
)

var (
	ErrMissingSectionsSeparator = errors.New("missing sections separator")
	ErrInvalidEncoding          = errors.New("header section is not valid utf-8")
)

// Packet is the wire unit shared by announcements and file transfers.
//
// On the wire it is a block of name=value lines, the sections separator,
// and the raw payload bytes:
//
//	id=42
//	addr=10.0.0.5:25802
//	::<payload>
//
// A header value containing the sections separator cannot be decoded back.
type Packet struct {
	Headers map[string]string
	Payload []byte
}

// NewPacket returns an empty packet ready for SetHeader calls.
func NewPacket() *Packet {
	return &Packet{Headers: make(map[string]string)}
}

// SetHeader inserts or replaces a header.
func (p *Packet) SetHeader(name, value string) {
	if p.Headers == nil {
		p.Headers = make(map[string]string)
	}
	p.Headers[name] = value
}

// Header returns the value of the named header.
func (p *Packet) Header(name string) (string, bool) {
	v, ok := p.Headers[name]
	return v, ok
}

// Bytes encodes the packet.
func (p *Packet) Bytes() []byte {
	return Encode(p.Headers, p.Payload)
}

// Encode serializes headers and payload. Header order is not stable.
func Encode(headers map[string]string, payload []byte) []byte {
	size := len(SectionsSeparator) + len(payload)
	for name, value := range headers {
		size += len(name) + len(value) + 2
	}

	buf := bytes.NewBuffer(make([]byte, 0, size))
	for name, value := range headers {
		buf.WriteString(name)
		buf.WriteByte(HeaderSeparator)
		buf.WriteString(value)
		buf.WriteByte('\n')
	}
	buf.WriteString(SectionsSeparator)
	buf.Write(payload)

	return buf.Bytes()
}

// DecodeError wraps a failure to decode a packet.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode packet: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses b into a packet. Header lines without a separator are
// ignored. The payload is everything after the first sections separator and
// aliases b.
func Decode(b []byte) (*Packet, error) {
	idx := bytes.Index(b, []byte(SectionsSeparator))
	if idx < 0 {
		return nil, &DecodeError{Err: ErrMissingSectionsSeparator}
	}

	section := b[:idx]
	if !utf8.Valid(section) {
		return nil, &DecodeError{Err: ErrInvalidEncoding}
	}

	p := NewPacket()
	for _, line := range strings.Split(string(section), "\n") {
		line = strings.TrimSuffix(line, "\r")
		name, value, ok := strings.Cut(line, string(HeaderSeparator))
		if !ok {
			continue
		}
		p.Headers[name] = value
	}

	p.Payload = b[idx+len(SectionsSeparator):]
	return p, nil
}
