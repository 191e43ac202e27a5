package wire

import (
	"github.com/sigurn/crc16"
)

// Use CRC16_ARC, same table the P1 telegrams were validated with
var checksumTable = crc16.MakeTable(crc16.CRC16_ARC)

// Field is one named child of a message element.
type Field struct {
	Name  string
	Value string
}

// Message is one complete element received from the device.
// Kind is the root tag, Fields are its immediate children in wire order.
type Message struct {
	Kind   string
	Fields []Field
	Raw    []byte
}

// Text returns the first field named name.
func (m Message) Text(name string) (string, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// All returns every field named name, in wire order.
func (m Message) All(name string) []string {
	var values []string
	for _, f := range m.Fields {
		if f.Name == name {
			values = append(values, f.Value)
		}
	}
	return values
}

// Checksum of the raw element bytes.
func (m Message) Checksum() uint16 {
	return crc16.Checksum(m.Raw, checksumTable)
}

func (m Message) String() string {
	return string(m.Raw)
}
