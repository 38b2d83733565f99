package adis16470

// Captured frame layout, one received byte per buffer word except the
// leading 32-bit timestamp. Words 1 and 2 answer the trailing request of
// the previous frame and are skipped.
const (
	frameTimestamp = 0
	frameDeltaAng  = 3
	frameGyroX     = 7
	frameGyroY     = 9
	frameGyroZ     = 11
	frameAccelX    = 13
	frameAccelY    = 15
	frameAccelZ    = 17
)

// Frame is one decoded capture. Gyro rates are in deg/s and accel in g;
// the delta angle stays raw because its scale depends on the time since
// the previous frame.
type Frame struct {
	Timestamp uint32
	DeltaRaw  int32

	GyroX, GyroY, GyroZ    float64
	AccelX, AccelY, AccelZ float64
}

// DecodeFrames parses the complete frames at the head of words, in
// order, and reports how many words they covered. A trailing partial
// frame is not consumed; the caller leaves it buffered until the next
// drain completes it.
func DecodeFrames(words []uint32) ([]Frame, int) {
	usable := len(words) - len(words)%FrameWords
	frames := make([]Frame, 0, usable/FrameWords)
	for i := 0; i < usable; i += FrameWords {
		w := words[i : i+FrameWords]
		frames = append(frames, Frame{
			Timestamp: w[frameTimestamp],
			DeltaRaw:  toInt(w[frameDeltaAng:]),
			GyroX:     float64(toShort(w[frameGyroX:])) / GyroLSBPerDPS,
			GyroY:     float64(toShort(w[frameGyroY:])) / GyroLSBPerDPS,
			GyroZ:     float64(toShort(w[frameGyroZ:])) / GyroLSBPerDPS,
			AccelX:    float64(toShort(w[frameAccelX:])) / AccelLSBPerG,
			AccelY:    float64(toShort(w[frameAccelY:])) / AccelLSBPerG,
			AccelZ:    float64(toShort(w[frameAccelZ:])) / AccelLSBPerG,
		})
	}
	return frames, usable
}

// toShort joins two byte-holding words big-endian.
func toShort(w []uint32) int16 {
	return int16(w[0]<<8 | w[1])
}

// toInt joins four byte-holding words big-endian.
func toInt(w []uint32) int32 {
	return int32(w[0]<<24 | w[1]<<16 | w[2]<<8 | w[3])
}
