// Package adis16470 drives the Analog Devices ADIS16470 six axis IMU over
// an SPI-like port. Register access and continuous capture are mutually
// exclusive bus modes; the driver switches between them, keeps a
// background loop draining the capture buffer, and fuses each frame into
// an integrated yaw angle and complementary-filtered tilt angles behind a
// single lock.
package adis16470

import (
	"math"
	"sync"
	"time"

	"github.com/jlmcmchl/ADIS16470-RoboRIO-Driver/ahrs"
	"github.com/jlmcmchl/ADIS16470-RoboRIO-Driver/bus"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrDeviceNotFound is returned when the product ID register does not
// answer with a supported chip.
var ErrDeviceNotFound = errors.New("adis16470: product id mismatch")

// Axis selects which physical axis streams its delta angle as yaw.
type Axis int

const (
	AxisX Axis = iota + 1
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	}
	return "?"
}

// CalTime is the bias averaging window, in powers of two samples at the
// chip's internal rate. The zero value selects Cal4s.
type CalTime uint16

const (
	Cal32ms CalTime = iota + 1
	Cal64ms
	Cal128ms
	Cal256ms
	Cal512ms
	Cal1s
	Cal2s
	Cal4s
	Cal8s
	Cal16s
	Cal32s
	Cal64s
)

// code is the raw value folded into the null config register.
func (c CalTime) code() uint16 { return uint16(c - 1) }

// settleTime is how long the averaging window needs before a bias
// correction is worth committing.
func (c CalTime) settleTime() time.Duration {
	samples := math.Pow(2, float64(c.code()))
	return time.Duration(samples / 2000.0 * 64.0 * 1.1 * float64(time.Second))
}

// ConfigResult reports the outcome of a runtime configuration change.
type ConfigResult int

const (
	ConfigOK ConfigResult = iota
	ConfigNoChange
	ConfigFailed
)

func (r ConfigResult) String() string {
	switch r {
	case ConfigOK:
		return "ok"
	case ConfigNoChange:
		return "no change"
	}
	return "failed"
}

// Reporter receives one-way driver status. logrus loggers satisfy it.
type Reporter interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Config wires an IMU to its port and pins. Bus is required. TriggerPin
// supplies the data ready line the capture engine fires on and is
// required for streaming. ResetPin and ReadyPin are the optional
// hardware reset line and status LED. Zero values for YawAxis and
// CalTime select the z axis and a four second window.
type Config struct {
	YawAxis Axis
	CalTime CalTime

	Bus        bus.Opener
	TriggerPin bus.PinOpener
	ResetPin   bus.PinOpener
	ReadyPin   bus.PinOpener

	Reporter Reporter
}

const (
	acquirePeriod  = 10 * time.Millisecond
	filterTau      = 0.5
	resetPulse     = 10 * time.Millisecond
	resetSettle    = 500 * time.Millisecond
	captureCSDelay = 5 * time.Microsecond
	captureWordGap = 16 * time.Microsecond
)

var standardBusConfig = bus.Config{
	ClockHz:          2000000,
	MSBFirst:         true,
	SampleOnTrailing: true,
	ClockActiveLow:   true,
	CSActiveLow:      true,
}

// IMU is a streaming ADIS16470 driver. One background loop owns the
// capture buffer and publishes each frame's results; any number of
// callers may read the published state concurrently. Configuration
// calls are not safe to overlap with each other.
type IMU struct {
	opener   bus.Opener
	triggerO bus.PinOpener
	resetO   bus.PinOpener
	readyO   bus.PinOpener
	report   Reporter

	conn      bus.Conn
	trigger   bus.Pin
	resetPin  bus.Pin
	readyPin  bus.Pin
	streaming bool
	calTime   CalTime

	acqStop chan struct{}
	acqDone chan struct{}

	mu          sync.Mutex
	yawAxis     Axis
	integAngle  float64
	gyroX       float64
	gyroY       float64
	gyroZ       float64
	accelX      float64
	accelY      float64
	accelZ      float64
	compAngleX  float64
	compAngleY  float64
	accelAngleX float64
	accelAngleY float64
}

// New resets the chip, verifies its identity, writes the filter and
// decimation setup, blocks through the initial bias averaging window,
// commits the bias correction and starts streaming. It returns with the
// acquisition loop running.
func New(cfg Config) (*IMU, error) {
	if cfg.Bus == nil {
		return nil, errors.New("adis16470: no bus port configured")
	}
	m := &IMU{
		opener:   cfg.Bus,
		triggerO: cfg.TriggerPin,
		resetO:   cfg.ResetPin,
		readyO:   cfg.ReadyPin,
		report:   cfg.Reporter,
		yawAxis:  cfg.YawAxis,
		calTime:  cfg.CalTime,
	}
	if m.report == nil {
		m.report = log.StandardLogger()
	}
	if m.yawAxis == 0 {
		m.yawAxis = AxisZ
	}
	if m.calTime == 0 {
		m.calTime = Cal4s
	}

	if err := m.pulseReset(); err != nil {
		m.Close()
		return nil, err
	}
	if err := m.enterStandard(); err != nil {
		m.Close()
		return nil, err
	}
	if err := m.setupRegisters(); err != nil {
		m.Close()
		return nil, err
	}

	m.report.Warningf("ADIS16470 detected, starting initial calibration delay")
	time.Sleep(m.calTime.settleTime())
	if err := m.writeRegister(RegisterGlobCmd, GlobCmdBiasCorrection); err != nil {
		m.Close()
		return nil, err
	}

	if err := m.enterStreaming(); err != nil {
		m.Close()
		return nil, err
	}
	m.lightReady()
	m.report.Infof("ADIS16470 initialized, yaw axis %s", m.yawAxis)
	return m, nil
}

// pulseReset drives the reset line low, then releases it to high-Z for
// the external pull-up and waits out the chip's start-up time.
func (m *IMU) pulseReset() error {
	if m.resetO == nil {
		return nil
	}
	pin, err := m.resetO.OpenPin()
	if err != nil {
		return errors.Wrap(err, "adis16470: opening reset pin")
	}
	m.resetPin = pin
	if err = pin.SetDirection(bus.Out); err != nil {
		return errors.Wrap(err, "adis16470: driving reset")
	}
	if err = pin.Write(bus.Low); err != nil {
		return errors.Wrap(err, "adis16470: driving reset")
	}
	time.Sleep(resetPulse)
	if err = pin.SetDirection(bus.In); err != nil {
		return errors.Wrap(err, "adis16470: releasing reset")
	}
	time.Sleep(resetSettle)
	return nil
}

func (m *IMU) setupRegisters() error {
	if err := m.writeRegister(RegisterDecRate, DecRateNone); err != nil {
		return err
	}
	if err := m.writeRegister(RegisterMscCtrl, MscCtrlDataReadyHigh); err != nil {
		return err
	}
	if err := m.writeRegister(RegisterFiltCtrl, FiltCtrlFourTaps); err != nil {
		return err
	}
	return m.writeRegister(RegisterNullCnfg, m.calTime.code()|NullCnfgAllAxes)
}

// lightReady pulls the active-low status LED on. Best effort.
func (m *IMU) lightReady() {
	if m.readyO == nil {
		return
	}
	pin, err := m.readyO.OpenPin()
	if err != nil {
		m.report.Warningf("status LED unavailable: %v", err)
		return
	}
	m.readyPin = pin
	pin.SetDirection(bus.Out)
	pin.Write(bus.Low)
}

// enterStandard joins the acquisition loop if it is running, replaces
// any open connection with a freshly configured one and verifies the
// chip's identity. Calling it while already in standard mode is allowed
// and revalidates the device.
func (m *IMU) enterStandard() error {
	m.stopAcquire()
	if m.conn != nil {
		if m.streaming {
			m.conn.StopStreaming()
			m.streaming = false
		}
		m.conn.Close()
		m.conn = nil
	}
	if m.trigger != nil {
		m.trigger.Close()
		m.trigger = nil
	}

	conn, err := m.opener.Open()
	if err != nil {
		return errors.Wrap(err, "adis16470: opening port")
	}
	if err = conn.Configure(standardBusConfig); err != nil {
		conn.Close()
		return errors.Wrap(err, "adis16470: configuring port")
	}
	m.conn = conn

	// Responses lag a transaction; the first read after opening answers
	// whatever request came before it.
	m.readRegister(RegisterProdID)
	id, err := m.readRegister(RegisterProdID)
	if err != nil {
		conn.Close()
		m.conn = nil
		return err
	}
	if id != ProductID1 && id != ProductID2 {
		m.report.Errorf("could not find an ADIS16470 (product id %d)", id)
		conn.Close()
		m.conn = nil
		return ErrDeviceNotFound
	}
	return nil
}

// enterStreaming locks the port onto the capture template for the
// configured yaw axis, arms the data ready trigger and restarts the
// acquisition loop. Requires standard mode; it is entered first if no
// connection is open.
func (m *IMU) enterStreaming() error {
	if m.conn == nil {
		if err := m.enterStandard(); err != nil {
			return err
		}
	}
	if m.triggerO == nil {
		return errors.New("adis16470: no data ready pin configured")
	}
	trigger, err := m.triggerO.OpenPin()
	if err != nil {
		return errors.Wrap(err, "adis16470: opening data ready pin")
	}
	if err = trigger.SetDirection(bus.In); err != nil {
		trigger.Close()
		return errors.Wrap(err, "adis16470: configuring data ready pin")
	}
	if err = m.conn.InitStreaming(CaptureBufferWords); err != nil {
		trigger.Close()
		return errors.Wrap(err, "adis16470: initializing capture")
	}
	if err = m.conn.SetTemplate(packetTemplate(m.yawAxis), TemplateTrailingZeros); err != nil {
		trigger.Close()
		return errors.Wrap(err, "adis16470: installing capture template")
	}
	if err = m.conn.ConfigureStall(captureCSDelay, captureWordGap); err != nil {
		trigger.Close()
		return errors.Wrap(err, "adis16470: configuring capture timing")
	}
	if err = m.conn.ArmTrigger(trigger, bus.RisingEdge); err != nil {
		trigger.Close()
		return errors.Wrap(err, "adis16470: arming capture")
	}
	m.trigger = trigger
	m.streaming = true
	m.startAcquire()
	m.Reset()
	return nil
}

// packetTemplate is the outgoing capture message for the chosen axis:
// eight register requests, each padded to a 16-bit word, reading the
// axis delta angle followed by every instantaneous channel.
func packetTemplate(axis Axis) []byte {
	out, low := byte(RegisterZDeltAngOut), byte(RegisterZDeltAngLow)
	switch axis {
	case AxisX:
		out, low = RegisterXDeltAngOut, RegisterXDeltAngLow
	case AxisY:
		out, low = RegisterYDeltAngOut, RegisterYDeltAngLow
	}
	return []byte{
		out, RegisterFlashCnt,
		low, RegisterFlashCnt,
		RegisterXGyroOut, RegisterFlashCnt,
		RegisterYGyroOut, RegisterFlashCnt,
		RegisterZGyroOut, RegisterFlashCnt,
		RegisterXAcclOut, RegisterFlashCnt,
		RegisterYAcclOut, RegisterFlashCnt,
		RegisterZAcclOut, RegisterFlashCnt,
	}
}

func (m *IMU) readRegister(addr byte) (uint16, error) {
	buf := []byte{addr & 0x7f, 0}
	if err := m.conn.Write(buf); err != nil {
		return 0, errors.Wrapf(err, "adis16470: requesting register %#02x", addr)
	}
	if err := m.conn.Read(buf); err != nil {
		return 0, errors.Wrapf(err, "adis16470: reading register %#02x", addr)
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

// writeRegister splits v into two byte writes, low half at addr, high
// half at addr+1, both with the write bit set.
func (m *IMU) writeRegister(addr byte, v uint16) error {
	if err := m.conn.Write([]byte{0x80 | addr, byte(v)}); err != nil {
		return errors.Wrapf(err, "adis16470: writing register %#02x", addr)
	}
	if err := m.conn.Write([]byte{0x81 | addr, byte(v >> 8)}); err != nil {
		return errors.Wrapf(err, "adis16470: writing register %#02x", addr)
	}
	return nil
}

func (m *IMU) startAcquire() {
	stop := make(chan struct{})
	done := make(chan struct{})
	m.acqStop, m.acqDone = stop, done
	go m.acquire(m.conn, stop, done)
}

// stopAcquire signals the loop and waits for it to exit.
func (m *IMU) stopAcquire() {
	if m.acqStop == nil {
		return
	}
	close(m.acqStop)
	<-m.acqDone
	m.acqStop, m.acqDone = nil, nil
}

// acquire drains complete frames from the capture buffer on a fixed
// period and folds each one into the published state. Frame bookkeeping
// is loop-local so a restart always reseeds the filter and skips the
// first frame's stale delta.
func (m *IMU) acquire(conn bus.Conn, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	filter := ahrs.NewCompFilter(filterTau)
	words := make([]uint32, CaptureBufferWords)
	var (
		prevTimestamp uint32
		firstFrame    = true
	)

	ticker := time.NewTicker(acquirePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		buffered, err := conn.Buffered()
		if err != nil {
			if errors.Cause(err) == bus.ErrClosed {
				return
			}
			continue
		}
		usable := buffered - buffered%FrameWords
		if usable == 0 {
			continue
		}
		n, err := conn.Drain(words[:usable])
		if err != nil {
			if errors.Cause(err) == bus.ErrClosed {
				return
			}
			continue
		}

		frames, _ := DecodeFrames(words[:n])
		for _, f := range frames {
			dtMicros := float64(f.Timestamp) - float64(prevTimestamp)
			dt := dtMicros / 1e6
			delta := (float64(f.DeltaRaw) * DeltaAngleLSB) / (SampleRateMicros / dtMicros)

			gyroXSI := f.GyroX * DegToRad
			gyroYSI := f.GyroY * DegToRad
			accelXSI := f.AccelX * Gravity
			accelYSI := f.AccelY * Gravity
			accelZSI := f.AccelZ * Gravity

			compX, compY, accX, accY := filter.Update(accelXSI, accelYSI, accelZSI, -gyroYSI, gyroXSI, dt)

			m.mu.Lock()
			if firstFrame {
				m.integAngle = 0
			} else {
				m.integAngle += delta
			}
			m.gyroX, m.gyroY, m.gyroZ = f.GyroX, f.GyroY, f.GyroZ
			m.accelX, m.accelY, m.accelZ = f.AccelX, f.AccelY, f.AccelZ
			m.compAngleX = compX * RadToDeg
			m.compAngleY = compY * RadToDeg
			m.accelAngleX = accX * RadToDeg
			m.accelAngleY = accY * RadToDeg
			m.mu.Unlock()

			prevTimestamp = f.Timestamp
			firstFrame = false
		}
	}
}

// Reset zeroes the integrated angle. Filter and instantaneous state are
// untouched.
func (m *IMU) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.integAngle = 0
}

// Calibrate commits the bias estimate accumulated since startup (or the
// last calibration) to the chip's offset registers. The capture
// round-trip this needs is skipped, and the failure reported, if the
// switch to register access fails.
func (m *IMU) Calibrate() {
	if err := m.enterStandard(); err != nil {
		m.report.Errorf("calibration aborted: %v", err)
		return
	}
	if err := m.writeRegister(RegisterGlobCmd, GlobCmdBiasCorrection); err != nil {
		m.report.Errorf("calibration write failed: %v", err)
	}
	if err := m.enterStreaming(); err != nil {
		m.report.Errorf("restarting capture after calibration: %v", err)
	}
}

// ConfigCalTime changes the bias averaging window. The new window takes
// effect for the next Calibrate call.
func (m *IMU) ConfigCalTime(t CalTime) ConfigResult {
	if t == m.calTime {
		return ConfigNoChange
	}
	if t < Cal32ms || t > Cal64s {
		return ConfigFailed
	}
	if err := m.enterStandard(); err != nil {
		m.report.Errorf("changing calibration time: %v", err)
		return ConfigFailed
	}
	m.calTime = t
	if err := m.writeRegister(RegisterNullCnfg, t.code()|NullCnfgAllAxes); err != nil {
		m.report.Errorf("changing calibration time: %v", err)
		return ConfigFailed
	}
	if err := m.enterStreaming(); err != nil {
		m.report.Errorf("restarting capture: %v", err)
		return ConfigFailed
	}
	return ConfigOK
}

// SetYawAxis changes which axis streams its delta angle, rebuilding the
// capture template. The integrated angle restarts from zero.
func (m *IMU) SetYawAxis(axis Axis) ConfigResult {
	m.mu.Lock()
	same := m.yawAxis == axis
	m.mu.Unlock()
	if same {
		return ConfigNoChange
	}
	if axis < AxisX || axis > AxisZ {
		return ConfigFailed
	}
	if err := m.enterStandard(); err != nil {
		m.report.Errorf("changing yaw axis: %v", err)
		return ConfigFailed
	}
	m.mu.Lock()
	m.yawAxis = axis
	m.mu.Unlock()
	if err := m.enterStreaming(); err != nil {
		m.report.Errorf("restarting capture: %v", err)
		return ConfigFailed
	}
	return ConfigOK
}

// Close stops the capture engine, joins the acquisition loop and
// releases the port and pins. Safe on a partially constructed driver
// and safe to call twice.
func (m *IMU) Close() error {
	if m.conn != nil && m.streaming {
		m.conn.StopStreaming()
		m.streaming = false
	}
	m.stopAcquire()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	for _, p := range []bus.Pin{m.trigger, m.resetPin, m.readyPin} {
		if p != nil {
			p.Close()
		}
	}
	m.trigger, m.resetPin, m.readyPin = nil, nil, nil
	return nil
}

// Angle returns the integrated angle of the configured yaw axis in
// degrees.
func (m *IMU) Angle() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.integAngle
}

// Rate returns the instantaneous rate of the configured yaw axis in
// deg/s.
func (m *IMU) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.yawAxis {
	case AxisX:
		return m.gyroX
	case AxisY:
		return m.gyroY
	}
	return m.gyroZ
}

// YawAxis returns the axis currently streamed as yaw.
func (m *IMU) YawAxis() Axis {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.yawAxis
}

// GyroInstantX returns the latest x rate in deg/s.
func (m *IMU) GyroInstantX() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gyroX
}

// GyroInstantY returns the latest y rate in deg/s.
func (m *IMU) GyroInstantY() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gyroY
}

// GyroInstantZ returns the latest z rate in deg/s.
func (m *IMU) GyroInstantZ() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gyroZ
}

// AccelInstantX returns the latest x acceleration in g.
func (m *IMU) AccelInstantX() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accelX
}

// AccelInstantY returns the latest y acceleration in g.
func (m *IMU) AccelInstantY() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accelY
}

// AccelInstantZ returns the latest z acceleration in g.
func (m *IMU) AccelInstantZ() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accelZ
}

// ComplementaryAngleX returns the fused x tilt angle in degrees.
func (m *IMU) ComplementaryAngleX() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.compAngleX
}

// ComplementaryAngleY returns the fused y tilt angle in degrees.
func (m *IMU) ComplementaryAngleY() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.compAngleY
}

// FilteredAccelAngleX returns the accelerometer-only x tilt angle in
// degrees.
func (m *IMU) FilteredAccelAngleX() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accelAngleX
}

// FilteredAccelAngleY returns the accelerometer-only y tilt angle in
// degrees.
func (m *IMU) FilteredAccelAngleY() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accelAngleY
}
