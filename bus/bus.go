// Package bus defines the transport surface the ADIS16470 driver runs on:
// synchronous register access over an SPI-like port, digital pins for reset
// and data-ready lines, and an auto-capture engine that clocks out a fixed
// message on every trigger edge and buffers the responses without per-frame
// involvement from the driver.
package bus

import (
	"time"

	"github.com/pkg/errors"
)

// Config carries the electrical parameters applied to a Conn before any
// register traffic starts.
type Config struct {
	ClockHz          int
	MSBFirst         bool
	SampleOnTrailing bool
	ClockActiveLow   bool
	CSActiveLow      bool
}

// Direction selects whether a pin drives or samples its line.
type Direction int

const (
	In Direction = iota
	Out
)

// Logic levels for Pin.Write.
const (
	Low  = 0
	High = 1
)

// Edge selects which line transitions fire the capture trigger.
type Edge int

const (
	RisingEdge Edge = iota
	FallingEdge
	BothEdges
)

var (
	// ErrClosed is returned for operations on a closed Conn.
	ErrClosed = errors.New("bus: connection closed")
	// ErrStreaming is returned when synchronous register access is
	// attempted while the capture engine holds the port.
	ErrStreaming = errors.New("bus: capture in progress")
	// ErrNotStreaming is returned by capture operations issued before
	// InitStreaming.
	ErrNotStreaming = errors.New("bus: capture not configured")
)

// Opener hands out connections to one physical port. The driver opens a
// fresh Conn on every mode switch and closes the previous one first.
type Opener interface {
	Open() (Conn, error)
}

// PinOpener hands out a digital pin.
type PinOpener interface {
	OpenPin() (Pin, error)
}

// Conn is one open connection to the port. Synchronous access and the
// capture engine are mutually exclusive: between ArmTrigger and
// StopStreaming the outgoing message is locked and Write/Read fail.
type Conn interface {
	// Configure applies the electrical parameters. Must be called before
	// any other traffic.
	Configure(cfg Config) error
	// Write sends p as one transaction.
	Write(p []byte) error
	// Read clocks out len(p) null bytes and fills p with the response.
	Read(p []byte) error
	// InitStreaming allocates a capture buffer of bufWords 32-bit words.
	// Register access stays available until ArmTrigger.
	InitStreaming(bufWords int) error
	// SetTemplate fixes the outgoing message: tpl is transmitted on every
	// trigger, followed by trailingZeros null bytes that clock out the
	// response to the final template word.
	SetTemplate(tpl []byte, trailingZeros int) error
	// ConfigureStall sets the settle time after chip select assertion and
	// the idle gap between consecutive 16-bit words of one capture.
	ConfigureStall(csDelay, wordGap time.Duration) error
	// ArmTrigger starts capturing one template transfer per matching edge
	// on pin. Non-blocking; the engine runs until StopStreaming.
	ArmTrigger(pin Pin, edge Edge) error
	// StopStreaming halts capture and unlocks register access. Words
	// already captured remain drainable.
	StopStreaming() error
	// Buffered reports how many captured words are waiting.
	Buffered() (int, error)
	// Drain moves up to len(dst) buffered words into dst, oldest first,
	// and reports how many were moved. Words not drained stay buffered.
	Drain(dst []uint32) (int, error)
	Close() error
}

// Pin is a single digital line. Implementations may require the pin and
// the Conn to come from the same backend; ArmTrigger reports a mismatch.
type Pin interface {
	SetDirection(d Direction) error
	Write(level int) error
	Read() (int, error)
	Close() error
}
