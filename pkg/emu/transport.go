package emu

import (
	"io"
	"sync"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/wire"
	"github.com/jacobsa/go-serial/serial"
)

const (
	BaudRate = 115200
	// Linux only honours tenths of a second here.
	readTimeoutMs = 100
)

// SerialOpener opens port at the fixed EMU line settings. Reads return after
// readTimeoutMs without data so the reader loop can observe Stop.
func SerialOpener(port string) (io.ReadWriteCloser, error) {
	options := serial.OpenOptions{
		PortName:              port,
		BaudRate:              BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		InterCharacterTimeout: readTimeoutMs,
	}
	return serial.Open(options)
}

// SimulatedTransport is an in-memory device. Chunks passed to Emit are
// returned by Read exactly as given; Respond, when set, is called for every
// decoded command written to it and its chunks are emitted in order.
type SimulatedTransport struct {
	ReadTimeout time.Duration
	Respond     func(cmd wire.Command) []string

	mu      sync.Mutex
	chunks  chan []byte
	closed  chan struct{}
	written []wire.Command
	opens   int
	reads   int
	readErr error
}

func NewSimulatedTransport() *SimulatedTransport {
	closed := make(chan struct{})
	close(closed)
	return &SimulatedTransport{
		ReadTimeout: readTimeoutMs * time.Millisecond,
		chunks:      make(chan []byte, 64),
		closed:      closed,
	}
}

// Opener returns an Opener that (re)opens this transport for any port name.
func (t *SimulatedTransport) Opener() Opener {
	return func(port string) (io.ReadWriteCloser, error) {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.opens++
		select {
		case <-t.closed:
			t.closed = make(chan struct{})
		default:
		}
		return t, nil
	}
}

// Emit queues a chunk as if the device had sent it.
func (t *SimulatedTransport) Emit(chunk string) {
	t.chunks <- []byte(chunk)
}

// FailReads makes every following Read return err, as an unplugged device
// would. A nil err restores normal reads.
func (t *SimulatedTransport) FailReads(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readErr = err
}

func (t *SimulatedTransport) Read(p []byte) (int, error) {
	t.mu.Lock()
	t.reads++
	closed := t.closed
	readErr := t.readErr
	t.mu.Unlock()

	if readErr != nil {
		return 0, readErr
	}

	timer := time.NewTimer(t.ReadTimeout)
	defer timer.Stop()

	select {
	case chunk := <-t.chunks:
		return copy(p, chunk), nil
	case <-closed:
		return 0, io.ErrClosedPipe
	case <-timer.C:
		return 0, io.EOF
	}
}

func (t *SimulatedTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	select {
	case <-t.closed:
		t.mu.Unlock()
		return 0, io.ErrClosedPipe
	default:
	}
	cmd, err := wire.DecodeCommand(p)
	if err == nil {
		t.written = append(t.written, cmd)
	}
	respond := t.Respond
	t.mu.Unlock()

	if err == nil && respond != nil {
		for _, chunk := range respond(cmd) {
			t.Emit(chunk)
		}
	}
	return len(p), nil
}

func (t *SimulatedTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	select {
	case <-t.closed:
	default:
		close(t.closed)
	}
	return nil
}

// Written returns the commands received so far.
func (t *SimulatedTransport) Written() []wire.Command {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]wire.Command(nil), t.written...)
}

func (t *SimulatedTransport) Opens() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opens
}

func (t *SimulatedTransport) Reads() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reads
}
