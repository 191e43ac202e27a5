package emu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/entities"
	"github.com/NotCoffee418/emu_power/pkg/store"
	"github.com/NotCoffee418/emu_power/pkg/wire"
	"github.com/rs/zerolog"
)

const (
	readBufferSize   = 4096
	maxReadErrors    = 10
	readErrorBackoff = 100 * time.Millisecond
)

// NewSession creates a closed session. Call Start to connect.
func NewSession(opts Options) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PollFactor <= 0 {
		opts.PollFactor = DefaultPollFactor
	}
	if opts.Opener == nil {
		opts.Opener = SerialOpener
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if opts.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	}

	return &Session{
		opts:      opts,
		log:       logger.With().Str("component", "emu").Logger(),
		store:     store.New(),
		assembler: wire.NewAssembler(),
	}
}

// Start opens the port and launches the reader loop.
// Starting an open session is a no-op.
func (s *Session) Start(port string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		if s.readerAlive() {
			return nil
		}
		// The reader gave up on the old handle; replace it
		s.port.Close()
		s.port = nil
	}

	conn, err := s.opts.Opener(port)
	if err != nil {
		s.log.Error().Err(err).Str("port", port).Msg("Failed to open serial port")
		return fmt.Errorf("%w %s: %w", ErrTransportOpen, port, err)
	}

	s.port = conn
	s.portName = port
	s.assembler.Reset()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.readLoop(conn, port, s.stop, s.done)

	s.log.Info().Str("port", port).Msg("Connected to EMU")
	return nil
}

// Stop signals the reader loop, waits for it to exit and then closes the port.
// Stopping a closed session is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil
	}

	close(s.stop)
	<-s.done

	err := s.port.Close()
	s.port = nil
	s.stop = nil
	s.done = nil
	s.log.Info().Str("port", s.portName).Msg("Disconnected from EMU")
	return err
}

// IsOpen reports whether the port is open and its reader is still running.
func (s *Session) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port != nil && s.readerAlive()
}

// readerAlive must be called with mu held.
func (s *Session) readerAlive() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Store exposes the response store backing GetData.
func (s *Session) Store() *store.Store {
	return s.store
}

// GetData returns the latest entity of kind. In fresh-only mode each entity
// is returned at most once.
func (s *Session) GetData(kind entities.Kind) (store.Entity, bool) {
	if s.opts.FreshOnly {
		return s.store.Consume(kind)
	}
	return s.store.Peek(kind)
}

// IssueCommand writes cmd to the device.
//
// Without synchronous mode or an expected kind it returns (nil, nil) once the
// command is written. Otherwise it waits for a fresh entity of the expected
// kind and returns ErrNoResponse if none arrives within the timeout or ctx's
// deadline. Any message of the expected kind satisfies the wait; the protocol
// carries no request id to tie a response to its command.
func (s *Session) IssueCommand(ctx context.Context, cmd wire.Command, expected entities.Kind) (*store.Entity, error) {
	wait := s.opts.Synchronous && expected != ""

	s.mu.RLock()
	port := s.port
	alive := port != nil && s.readerAlive()
	s.mu.RUnlock()
	if port == nil {
		recordCommand(cmd.Name, outcomeError)
		return nil, ErrNotOpen
	}
	if !alive {
		recordCommand(cmd.Name, outcomeError)
		return nil, ErrReaderStopped
	}

	data, err := cmd.Encode()
	if err != nil {
		recordCommand(cmd.Name, outcomeError)
		return nil, err
	}

	if wait {
		s.store.Invalidate(expected)
	}
	// Written outside mu so a stalled write cannot hold up Stop
	err = s.write(port, data)

	if err != nil {
		recordCommand(cmd.Name, outcomeError)
		return nil, fmt.Errorf("write %s: %w", cmd.Name, err)
	}

	if !wait {
		s.log.Debug().Str("command", cmd.Name).Msg("Not waiting for response")
		recordCommand(cmd.Name, outcomeSent)
		return nil, nil
	}

	started := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, s.waitBudget())
	defer cancel()

	entity, err := s.store.WaitFresh(waitCtx, expected)
	observeWait(time.Since(started))
	if err != nil {
		recordCommand(cmd.Name, outcomeNoResponse)
		s.log.Debug().Str("command", cmd.Name).Str("expected", string(expected)).Msg("No response")
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoResponse, ctx.Err())
		}
		return nil, ErrNoResponse
	}

	recordCommand(cmd.Name, outcomeAnswered)
	return &entity, nil
}

// waitBudget is the timeout truncated to whole poll intervals, at least one.
func (s *Session) waitBudget() time.Duration {
	interval := time.Second / time.Duration(s.opts.PollFactor)
	attempts := s.opts.Timeout / interval
	if attempts < 1 {
		attempts = 1
	}
	return attempts * interval
}

func (s *Session) write(port io.Writer, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.log.Debug().Bytes("data", data).Msg("TX")
	_, err := port.Write(data)
	return err
}

// readLoop owns reads from conn until stop is closed or reads keep failing.
func (s *Session) readLoop(conn io.Reader, port string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	buf := make([]byte, readBufferSize)
	consecutiveErrors := 0

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := conn.Read(buf)
		if n > 0 {
			s.handleChunk(buf[:n])
		}

		// A read timeout surfaces as io.EOF with no data
		if err == nil || errors.Is(err, io.EOF) {
			consecutiveErrors = 0
			continue
		}

		consecutiveErrors++
		s.log.Warn().Err(err).Str("port", port).Msgf("Error reading serial port (%d/%d)", consecutiveErrors, maxReadErrors)
		if consecutiveErrors >= maxReadErrors {
			s.log.Error().Err(err).Str("port", port).Msg("Too many consecutive read errors, stopping reader. Session is no longer open")
			return
		}

		select {
		case <-stop:
			return
		case <-time.After(readErrorBackoff):
		}
	}
}

func (s *Session) handleChunk(chunk []byte) {
	messages, err := s.assembler.Feed(chunk)
	if err != nil {
		if errors.Is(err, wire.ErrPendingOverflow) {
			recordFrame(frameOverflow)
		} else {
			recordFrame(frameMalformed)
		}
		s.log.Debug().Err(err).Bytes("chunk", chunk).Msg("Malformed XML")
	}

	for _, msg := range messages {
		desc, ok := entities.Classify(msg.Kind)
		if !ok {
			recordFrame(frameUnknown)
			s.log.Debug().Str("tag", msg.Kind).Msg("Unsupported tag")
			continue
		}

		recordFrame(frameParsed)
		s.log.Debug().Str("tag", msg.Kind).Bytes("raw", msg.Raw).Msg("RX")
		s.store.Put(desc.Kind, msg, desc.Parse(msg))
	}
}
