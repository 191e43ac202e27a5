package wire

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxPending bounds the bytes held while waiting for an element to complete.
// Device messages are well under 1 KiB.
const DefaultMaxPending = 16 * 1024

// Sibling elements have no shared root on the wire, so pending input is
// parsed inside this synthetic container.
const containerOpen = "<Root>"

var (
	ErrMalformed       = errors.New("malformed element")
	ErrPendingOverflow = errors.New("pending input exceeds limit")
)

// Assembler turns arbitrarily fragmented reads into complete messages.
// It is not safe for concurrent use; the reader loop owns it.
type Assembler struct {
	MaxPending int
	pending    []byte
}

func NewAssembler() *Assembler {
	return &Assembler{MaxPending: DefaultMaxPending}
}

// Feed appends chunk to the pending input and returns every message completed by it.
// Incomplete trailing input is kept for the next call. On malformed input
// ErrMalformed is returned alongside any messages that completed. A message
// that swallowed the start of the next one (its closing tag was lost) is
// dropped and parsing resumes at the swallowed element; anything else
// malformed discards the pending buffer.
func (a *Assembler) Feed(chunk []byte) ([]Message, error) {
	a.pending = append(a.pending, chunk...)
	if len(bytes.TrimSpace(a.pending)) == 0 {
		a.pending = a.pending[:0]
		return nil, nil
	}

	var out []Message
	var fault error
	for {
		messages, consumed, err := split(a.pending)
		out = append(out, messages...)

		var nested *nestedError
		if errors.As(err, &nested) {
			fault = fmt.Errorf("%w: %w", ErrMalformed, err)
			a.pending = append(a.pending[:0], a.pending[nested.resume:]...)
			continue
		}
		if err != nil {
			a.pending = a.pending[:0]
			return out, fmt.Errorf("%w: %w", ErrMalformed, err)
		}

		a.pending = append(a.pending[:0], a.pending[consumed:]...)
		break
	}

	if a.MaxPending > 0 && len(a.pending) > a.MaxPending {
		dropped := len(a.pending)
		a.pending = a.pending[:0]
		return out, fmt.Errorf("%w: dropped %d bytes", ErrPendingOverflow, dropped)
	}
	return out, fault
}

// Pending returns the number of buffered bytes not yet part of a complete element.
func (a *Assembler) Pending() int {
	return len(a.pending)
}

func (a *Assembler) Reset() {
	a.pending = a.pending[:0]
}

// nestedError marks an element found below a field. Messages are a root with
// flat text children, so this only happens when a closing tag was lost.
// resume is the offset in the pending buffer where parsing restarts.
type nestedError struct {
	tag    string
	resume int
}

func (e *nestedError) Error() string {
	return fmt.Sprintf("unexpected nested element <%s>", e.tag)
}

// split parses buf as the body of the synthetic container. It returns the
// complete messages and how many bytes of buf they (and any stray text) span.
func split(buf []byte) ([]Message, int, error) {
	dec := xml.NewDecoder(io.MultiReader(bytes.NewReader([]byte(containerOpen)), bytes.NewReader(buf)))
	if _, err := dec.Token(); err != nil {
		return nil, 0, err
	}

	offset := func() int {
		return int(dec.InputOffset()) - len(containerOpen)
	}

	var messages []Message
	consumed := 0
	for {
		start := offset()
		tok, err := dec.Token()
		if err != nil {
			if incomplete(err) {
				return messages, consumed, nil
			}
			return messages, consumed, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			fields, err := readFields(dec, offset)
			if err != nil {
				if incomplete(err) {
					return messages, consumed, nil
				}
				return messages, consumed, err
			}
			end := offset()
			messages = append(messages, Message{
				Kind:   t.Name.Local,
				Fields: fields,
				Raw:    bytes.Clone(bytes.TrimSpace(buf[start:end])),
			})
			consumed = end
		case xml.EndElement:
			return messages, consumed, fmt.Errorf("unexpected end element </%s>", t.Name.Local)
		default:
			// text, comments and directives between elements
			consumed = offset()
		}
	}
}

// readFields reads the children of a message up to and including its end tag.
func readFields(dec *xml.Decoder, offset func() int) ([]Field, error) {
	var fields []Field
	var field *Field
	var text []byte
	fieldStart := 0

	for {
		at := offset()
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if field == nil {
				field = &Field{Name: t.Name.Local}
				fieldStart = at
				text = text[:0]
				continue
			}
			// An element opened right inside a field is the root of the next
			// message; otherwise the field itself was cut short.
			resume := at
			if len(bytes.TrimSpace(text)) == 0 {
				resume = fieldStart
			}
			return nil, &nestedError{tag: t.Name.Local, resume: resume}
		case xml.CharData:
			if field != nil {
				text = append(text, t...)
			}
		case xml.EndElement:
			if field == nil {
				return fields, nil
			}
			field.Value = string(text)
			fields = append(fields, *field)
			field = nil
		}
	}
}

func incomplete(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var syntaxErr *xml.SyntaxError
	return errors.As(err, &syntaxErr) && syntaxErr.Msg == "unexpected EOF"
}
