package sim

import "math"

// Chip-side scaling, per the ADIS16470 datasheet: the delta angle
// registers carry 2160/2^31 degrees per LSB accumulated at the 2 kHz
// internal rate, gyro output is 10 LSB per deg/s, accel output is
// 800 LSB per g.
const (
	deltaAngleLSB = 2160.0 / 2147483648.0
	internalRate  = 2000.0
	gyroLSBPerDPS = 10.0
	accelLSBPerG  = 800.0
)

// FrameWords is the size of one captured frame: a timestamp word
// followed by eighteen response bytes, one byte per word.
const FrameWords = 19

// Sample is the physical state the chip would report on one trigger.
// YawRate feeds the delta angle channel of whichever axis is streamed;
// the gyro and accel fields feed the instantaneous output registers.
type Sample struct {
	YawRate                float64 // deg/s
	GyroX, GyroY, GyroZ    float64 // deg/s
	AccelX, AccelY, AccelZ float64 // g
}

// FrameBuilder turns Samples into the word layout the capture engine
// stores: words 1 and 2 carry the response to the trailing null request
// of the previous frame, the delta angle spans words 3 to 6 as a
// big-endian 32-bit value, and the six instantaneous channels follow as
// big-endian 16-bit values.
type FrameBuilder struct {
	ts uint32
}

// NewFrameBuilder starts the synthetic timestamp clock at startMicros.
func NewFrameBuilder(startMicros uint32) *FrameBuilder {
	return &FrameBuilder{ts: startMicros}
}

// Timestamp returns the timestamp the most recent frame carried.
func (b *FrameBuilder) Timestamp() uint32 { return b.ts }

// Next advances the clock by dtMicros and returns the frame for s.
func (b *FrameBuilder) Next(dtMicros uint32, s Sample) []uint32 {
	b.ts += dtMicros
	f := make([]uint32, FrameWords)
	f[0] = b.ts
	putWord32(f[3:7], RawDelta(s.YawRate))
	putWord16(f[7:9], rawScaled(s.GyroX, gyroLSBPerDPS))
	putWord16(f[9:11], rawScaled(s.GyroY, gyroLSBPerDPS))
	putWord16(f[11:13], rawScaled(s.GyroZ, gyroLSBPerDPS))
	putWord16(f[13:15], rawScaled(s.AccelX, accelLSBPerG))
	putWord16(f[15:17], rawScaled(s.AccelY, accelLSBPerG))
	putWord16(f[17:19], rawScaled(s.AccelZ, accelLSBPerG))
	return f
}

// RawDelta converts a rate in deg/s to the per-sample delta angle
// register value accumulated at the internal rate.
func RawDelta(rate float64) int32 {
	return int32(math.Round(rate / internalRate / deltaAngleLSB))
}

func rawScaled(v, lsbPerUnit float64) int16 {
	return int16(math.Round(v * lsbPerUnit))
}

func putWord16(dst []uint32, v int16) {
	u := uint16(v)
	dst[0] = uint32(u >> 8)
	dst[1] = uint32(u & 0xff)
}

func putWord32(dst []uint32, v int32) {
	u := uint32(v)
	dst[0] = u >> 24 & 0xff
	dst[1] = u >> 16 & 0xff
	dst[2] = u >> 8 & 0xff
	dst[3] = u & 0xff
}
