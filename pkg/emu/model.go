package emu

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/store"
	"github.com/NotCoffee418/emu_power/pkg/wire"
	"github.com/rs/zerolog"
)

var (
	ErrNotOpen          = errors.New("serial port is not open")
	ErrTransportOpen    = errors.New("failed to open serial port")
	ErrReaderStopped    = errors.New("serial reader stopped after repeated read errors")
	ErrNoResponse       = errors.New("no fresh response before timeout")
	ErrInvalidEvent     = errors.New("invalid event specified")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidPrice     = errors.New("invalid price")
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultPollFactor = 2
)

// Opener opens the transport for a port name.
type Opener func(port string) (io.ReadWriteCloser, error)

type Options struct {
	// Block in IssueCommand until the expected response arrives.
	Synchronous bool
	// GetData only returns entities not yet seen by a previous GetData.
	FreshOnly bool
	// How long a synchronous command waits for its response.
	Timeout time.Duration
	// Wait budget granularity, in fractions of a second.
	PollFactor int
	// Emit frame level diagnostics.
	Debug bool

	Logger *zerolog.Logger
	Opener Opener
}

// Session owns one device connection and the reader loop bound to it.
type Session struct {
	opts      Options
	log       zerolog.Logger
	store     *store.Store
	assembler *wire.Assembler

	mu       sync.RWMutex
	port     io.ReadWriteCloser
	portName string
	stop     chan struct{}
	done     chan struct{}

	writeMu sync.Mutex
}
