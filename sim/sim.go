// Package sim provides an in-memory stand-in for the SPI port and digital
// pins the ADIS16470 driver runs on. A Port behaves like the chip wired to
// a capture engine: register reads come back one transaction late, register
// writes land one byte at a time, and captured stream words wait in a
// bounded buffer until drained. Tests script it; nothing here touches
// hardware.
package sim

import (
	"sync"
	"time"

	"github.com/jlmcmchl/ADIS16470-RoboRIO-Driver/bus"
	"github.com/pkg/errors"
)

const (
	prodIDAddr    = 0x72
	defaultProdID = 16470
)

// RegWrite is one completed 16-bit register write, logged when the high
// byte lands.
type RegWrite struct {
	Addr  byte
	Value uint16
}

// Port implements bus.Opener and bus.Conn over an in-memory register file.
// The register file survives Close/Open cycles the way a powered chip
// survives the host reopening its SPI handle.
type Port struct {
	mu sync.Mutex

	// FailOpen makes the next Open return an error.
	FailOpen bool

	regs map[byte]uint16
	next uint16

	writes []RegWrite
	calls  []string
	reads  int

	configured bool
	cfg        bus.Config
	closed     bool

	capWords int
	buf      []uint32
	tpl      []byte
	zeros    int
	csDelay  time.Duration
	wordGap  time.Duration
	armed    bool
	trigger  bus.Pin
	edge     bus.Edge
	dropped  int
}

var (
	_ bus.Opener = (*Port)(nil)
	_ bus.Conn   = (*Port)(nil)
)

// NewPort returns a Port whose product ID register reads back as a stock
// ADIS16470. All other registers start at zero.
func NewPort() *Port {
	return &Port{regs: map[byte]uint16{prodIDAddr: defaultProdID}}
}

// Open hands the port back as a fresh connection. Capture state from a
// previous connection is discarded; the register file is kept.
func (p *Port) Open() (bus.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailOpen {
		p.FailOpen = false
		return nil, errors.New("sim: port unavailable")
	}
	p.closed = false
	p.configured = false
	p.armed = false
	p.capWords = 0
	p.buf = nil
	p.tpl = nil
	p.calls = append(p.calls, "open")
	return p, nil
}

func (p *Port) Configure(cfg bus.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return bus.ErrClosed
	}
	p.cfg = cfg
	p.configured = true
	p.calls = append(p.calls, "configure")
	return nil
}

// Write accepts the two-byte transactions the driver issues: a set high
// bit addresses a register byte write, a clear high bit stages the
// addressed register as the next response.
func (p *Port) Write(b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(); err != nil {
		return err
	}
	if len(b) != 2 {
		return errors.Errorf("sim: write of %d bytes, want 2", len(b))
	}
	addr := b[0] & 0x7f
	if b[0]&0x80 != 0 {
		if addr%2 == 0 {
			p.regs[addr] = p.regs[addr]&0xff00 | uint16(b[1])
		} else {
			base := addr - 1
			p.regs[base] = p.regs[base]&0x00ff | uint16(b[1])<<8
			p.writes = append(p.writes, RegWrite{base, p.regs[base]})
		}
		return nil
	}
	p.next = p.regs[addr]
	return nil
}

// Read answers the previously staged request, then stages register zero
// the way null bytes on the wire would.
func (p *Port) Read(b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(); err != nil {
		return err
	}
	if len(b) != 2 {
		return errors.Errorf("sim: read of %d bytes, want 2", len(b))
	}
	b[0] = byte(p.next >> 8)
	b[1] = byte(p.next)
	p.next = p.regs[0]
	p.reads++
	return nil
}

func (p *Port) InitStreaming(bufWords int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return bus.ErrClosed
	}
	p.capWords = bufWords
	p.buf = nil
	p.calls = append(p.calls, "init-streaming")
	return nil
}

func (p *Port) SetTemplate(tpl []byte, trailingZeros int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return bus.ErrClosed
	}
	if p.capWords == 0 {
		return bus.ErrNotStreaming
	}
	p.tpl = append([]byte(nil), tpl...)
	p.zeros = trailingZeros
	p.calls = append(p.calls, "set-template")
	return nil
}

func (p *Port) ConfigureStall(csDelay, wordGap time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return bus.ErrClosed
	}
	p.csDelay = csDelay
	p.wordGap = wordGap
	p.calls = append(p.calls, "configure-stall")
	return nil
}

func (p *Port) ArmTrigger(pin bus.Pin, edge bus.Edge) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return bus.ErrClosed
	}
	if p.capWords == 0 {
		return bus.ErrNotStreaming
	}
	p.trigger = pin
	p.edge = edge
	p.armed = true
	p.calls = append(p.calls, "arm")
	return nil
}

func (p *Port) StopStreaming() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return bus.ErrClosed
	}
	p.armed = false
	p.calls = append(p.calls, "stop-streaming")
	return nil
}

func (p *Port) Buffered() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, bus.ErrClosed
	}
	if p.capWords == 0 {
		return 0, bus.ErrNotStreaming
	}
	return len(p.buf), nil
}

func (p *Port) Drain(dst []uint32) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, bus.ErrClosed
	}
	if p.capWords == 0 {
		return 0, bus.ErrNotStreaming
	}
	n := copy(dst, p.buf)
	p.buf = append(p.buf[:0], p.buf[n:]...)
	return n, nil
}

func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.armed = false
	p.calls = append(p.calls, "close")
	return nil
}

func (p *Port) ready() error {
	if p.closed {
		return bus.ErrClosed
	}
	if p.armed {
		return bus.ErrStreaming
	}
	if !p.configured {
		return errors.New("sim: not configured")
	}
	return nil
}

// PushWords appends captured words as if the engine had fired. The push is
// all or nothing against the configured capacity; a rejected push counts
// as one dropped frame.
func (p *Port) PushWords(words []uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.capWords > 0 && len(p.buf)+len(words) > p.capWords {
		p.dropped++
		return false
	}
	p.buf = append(p.buf, words...)
	return true
}

// SetRegister stores v at the 16-bit register with base address addr.
func (p *Port) SetRegister(addr byte, v uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.regs[addr] = v
}

// Register reads the register file directly, bypassing the wire protocol.
func (p *Port) Register(addr byte) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regs[addr]
}

// Writes returns the completed 16-bit register writes in order.
func (p *Port) Writes() []RegWrite {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]RegWrite(nil), p.writes...)
}

// Calls returns the connection-level call sequence: open, configure,
// init-streaming, set-template, configure-stall, arm, stop-streaming,
// close. Register traffic is not included.
func (p *Port) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Template returns the outgoing message installed by SetTemplate.
func (p *Port) Template() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.tpl...)
}

// Armed reports whether the capture engine is running.
func (p *Port) Armed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.armed
}

// Dropped returns the number of frames rejected by PushWords.
func (p *Port) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Pin is an in-memory digital line. It opens itself, so a test can hold
// the *Pin it hands to the driver and inspect what was done to it.
type Pin struct {
	mu     sync.Mutex
	dir    bus.Direction
	level  int
	events []string
}

var (
	_ bus.Pin       = (*Pin)(nil)
	_ bus.PinOpener = (*Pin)(nil)
)

func (p *Pin) OpenPin() (bus.Pin, error) { return p, nil }

func (p *Pin) SetDirection(d bus.Direction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dir = d
	if d == bus.Out {
		p.events = append(p.events, "out")
	} else {
		p.events = append(p.events, "in")
	}
	return nil
}

func (p *Pin) Write(level int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
	if level == bus.Low {
		p.events = append(p.events, "write low")
	} else {
		p.events = append(p.events, "write high")
	}
	return nil
}

func (p *Pin) Read() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level, nil
}

func (p *Pin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "close")
	return nil
}

// Level returns the last written level.
func (p *Pin) Level() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Events returns the pin history: direction changes, writes and closes.
func (p *Pin) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}
