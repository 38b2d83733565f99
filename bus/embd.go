package bus

import (
	"sync"
	"time"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"
	_ "github.com/kidoman/embd/host/rpi"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	spiHostOnce  sync.Once
	spiHostErr   error
	gpioHostOnce sync.Once
	gpioHostErr  error
)

// EmbdPort opens connections on a Linux spidev channel through embd.
// The capture engine is implemented in software: a watch on the trigger
// pin clocks the template out in 16-bit transactions and buffers the
// responses, standing in for the FPGA engine the chip was designed
// against.
type EmbdPort struct {
	Channel byte
}

func (p EmbdPort) Open() (Conn, error) {
	spiHostOnce.Do(func() { spiHostErr = embd.InitSPI() })
	if spiHostErr != nil {
		return nil, errors.Wrap(spiHostErr, "bus: SPI host init")
	}
	return &embdConn{channel: p.Channel}, nil
}

// GPIO names a digital pin in the host's numbering for OpenPin.
type GPIO int

func (g GPIO) OpenPin() (Pin, error) {
	gpioHostOnce.Do(func() { gpioHostErr = embd.InitGPIO() })
	if gpioHostErr != nil {
		return nil, errors.Wrap(gpioHostErr, "bus: GPIO host init")
	}
	p, err := embd.NewDigitalPin(int(g))
	if err != nil {
		return nil, errors.Wrapf(err, "bus: open pin %d", int(g))
	}
	return &EmbdPin{pin: p}, nil
}

// EmbdPin adapts one embd digital pin.
type EmbdPin struct {
	pin embd.DigitalPin
}

func (p *EmbdPin) SetDirection(d Direction) error {
	if d == Out {
		return p.pin.SetDirection(embd.Out)
	}
	return p.pin.SetDirection(embd.In)
}

func (p *EmbdPin) Write(level int) error { return p.pin.Write(level) }

func (p *EmbdPin) Read() (int, error) { return p.pin.Read() }

func (p *EmbdPin) Close() error { return p.pin.Close() }

type embdConn struct {
	channel byte

	mu      sync.Mutex
	bus     embd.SPIBus
	closed  bool
	ring    *wordRing
	tpl     []byte
	zeros   int
	csDelay time.Duration
	wordGap time.Duration
	trigger *EmbdPin
	armed   bool
	started time.Time
	frame   []uint32
	word    []byte
	dropped int
}

func (c *embdConn) Configure(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if !cfg.MSBFirst {
		return errors.New("bus: LSB-first transfers not supported")
	}
	if !cfg.CSActiveLow {
		return errors.New("bus: active-high chip select not supported")
	}
	mode := byte(embd.SPIMode0)
	switch {
	case cfg.ClockActiveLow && cfg.SampleOnTrailing:
		mode = embd.SPIMode3
	case cfg.ClockActiveLow:
		mode = embd.SPIMode2
	case cfg.SampleOnTrailing:
		mode = embd.SPIMode1
	}
	if c.bus != nil {
		c.bus.Close()
	}
	c.bus = embd.NewSPIBus(mode, c.channel, cfg.ClockHz, 8, 0)
	return nil
}

func (c *embdConn) Write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.standardReady(); err != nil {
		return err
	}
	if _, err := c.bus.Write(p); err != nil {
		return errors.Wrap(err, "bus: write")
	}
	return nil
}

func (c *embdConn) Read(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.standardReady(); err != nil {
		return err
	}
	data, err := c.bus.ReceiveData(len(p))
	if err != nil {
		return errors.Wrap(err, "bus: read")
	}
	copy(p, data)
	return nil
}

func (c *embdConn) standardReady() error {
	if c.closed {
		return ErrClosed
	}
	if c.armed {
		return ErrStreaming
	}
	if c.bus == nil {
		return errors.New("bus: not configured")
	}
	return nil
}

func (c *embdConn) InitStreaming(bufWords int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if bufWords <= 0 {
		return errors.Errorf("bus: capture buffer of %d words", bufWords)
	}
	c.ring = newWordRing(bufWords)
	c.dropped = 0
	return nil
}

func (c *embdConn) SetTemplate(tpl []byte, trailingZeros int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.armed {
		return ErrStreaming
	}
	c.tpl = append(c.tpl[:0], tpl...)
	c.zeros = trailingZeros
	return nil
}

func (c *embdConn) ConfigureStall(csDelay, wordGap time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.csDelay = csDelay
	c.wordGap = wordGap
	return nil
}

func (c *embdConn) ArmTrigger(pin Pin, edge Edge) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.bus == nil {
		return errors.New("bus: not configured")
	}
	if c.ring == nil {
		return ErrNotStreaming
	}
	if len(c.tpl) == 0 {
		return errors.New("bus: no capture template")
	}
	ep, ok := pin.(*EmbdPin)
	if !ok {
		return errors.New("bus: trigger pin is not an embd pin")
	}
	e := embd.EdgeBoth
	switch edge {
	case RisingEdge:
		e = embd.EdgeRising
	case FallingEdge:
		e = embd.EdgeFalling
	}
	c.trigger = ep
	c.armed = true
	c.started = time.Now()
	c.frame = make([]uint32, 0, 1+len(c.tpl)+c.zeros)
	c.word = make([]byte, 2)
	if err := ep.pin.Watch(e, func(embd.DigitalPin) { c.capture() }); err != nil {
		c.armed = false
		c.trigger = nil
		return errors.Wrap(err, "bus: watch trigger")
	}
	return nil
}

// capture runs on the pin-watch goroutine, once per trigger edge.
func (c *embdConn) capture() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed || c.bus == nil {
		return
	}
	c.frame = c.frame[:0]
	c.frame = append(c.frame, uint32(time.Since(c.started).Microseconds()))
	if c.csDelay > 0 {
		time.Sleep(c.csDelay)
	}
	n := len(c.tpl) + c.zeros
	for i := 0; i < n; i += 2 {
		c.word[0], c.word[1] = 0, 0
		if i < len(c.tpl) {
			c.word[0] = c.tpl[i]
			if i+1 < len(c.tpl) {
				c.word[1] = c.tpl[i+1]
			}
		}
		if i > 0 && c.wordGap > 0 {
			time.Sleep(c.wordGap)
		}
		if err := c.bus.TransferAndReceiveData(c.word); err != nil {
			c.countDrop()
			return
		}
		c.frame = append(c.frame, uint32(c.word[0]), uint32(c.word[1]))
	}
	if !c.ring.Push(c.frame) {
		c.countDrop()
	}
}

func (c *embdConn) countDrop() {
	c.dropped++
	if c.dropped == 1 || c.dropped%1000 == 0 {
		log.Warnf("bus: capture buffer full, %d frames dropped", c.dropped)
	}
}

func (c *embdConn) StopStreaming() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *embdConn) stopLocked() error {
	if !c.armed {
		return nil
	}
	c.armed = false
	if c.trigger != nil {
		if err := c.trigger.pin.StopWatching(); err != nil {
			c.trigger = nil
			return errors.Wrap(err, "bus: stop watching trigger")
		}
		c.trigger = nil
	}
	return nil
}

func (c *embdConn) Buffered() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	if c.ring == nil {
		return 0, ErrNotStreaming
	}
	return c.ring.Len(), nil
}

func (c *embdConn) Drain(dst []uint32) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	if c.ring == nil {
		return 0, ErrNotStreaming
	}
	return c.ring.Pop(dst), nil
}

func (c *embdConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.stopLocked()
	if c.bus != nil {
		if cerr := c.bus.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "bus: close spi")
		}
		c.bus = nil
	}
	c.ring = nil
	return err
}
