package wire

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
)

const (
	commandTag = "Command"
	nameTag    = "Name"
)

var ErrEmptyCommandName = errors.New("command name is empty")

// Param is one optional command field. A nil Value is never written.
type Param struct {
	Key   string
	Value *string
}

// Command is a command name plus its parameters in wire order.
type Command struct {
	Name   string
	Params []Param
}

func NewCommand(name string, params ...Param) Command {
	return Command{Name: name, Params: params}
}

// Set is a present parameter.
func Set(key, value string) Param {
	return Param{Key: key, Value: &value}
}

// Opt is a parameter that is only sent when value is non-nil.
func Opt(key string, value *string) Param {
	return Param{Key: key, Value: value}
}

// Fields returns the parameters that will be sent, excluding the name.
func (c Command) Fields() []Field {
	fields := make([]Field, 0, len(c.Params))
	for _, p := range c.Params {
		if p.Value == nil {
			continue
		}
		fields = append(fields, Field{Name: p.Key, Value: *p.Value})
	}
	return fields
}

// Param returns the value of the first present parameter named key.
func (c Command) Param(key string) (string, bool) {
	for _, p := range c.Params {
		if p.Key == key && p.Value != nil {
			return *p.Value, true
		}
	}
	return "", false
}

// Encode renders the command as a single element ready for one write.
func (c Command) Encode() ([]byte, error) {
	if c.Name == "" {
		return nil, ErrEmptyCommandName
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	root := xml.StartElement{Name: xml.Name{Local: commandTag}}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	fields := append([]Field{{Name: nameTag, Value: c.Name}}, c.Fields()...)
	for _, f := range fields {
		if err := enc.EncodeElement(f.Value, xml.StartElement{Name: xml.Name{Local: f.Name}}); err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.Name, err)
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type element struct {
	XMLName xml.Name
	Fields  []struct {
		XMLName xml.Name
		Value   string `xml:",chardata"`
	} `xml:",any"`
}

// DecodeCommand parses an encoded command back into name and present parameters.
func DecodeCommand(data []byte) (Command, error) {
	var el element
	if err := xml.Unmarshal(data, &el); err != nil {
		return Command{}, err
	}
	if el.XMLName.Local != commandTag {
		return Command{}, fmt.Errorf("unexpected root <%s>", el.XMLName.Local)
	}

	var cmd Command
	for _, f := range el.Fields {
		if f.XMLName.Local == nameTag && cmd.Name == "" {
			cmd.Name = f.Value
			continue
		}
		cmd.Params = append(cmd.Params, Set(f.XMLName.Local, f.Value))
	}
	if cmd.Name == "" {
		return Command{}, ErrEmptyCommandName
	}
	return cmd, nil
}
