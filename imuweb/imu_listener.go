package main

import (
	"encoding/json"
	"time"

	"github.com/jlmcmchl/ADIS16470-RoboRIO-Driver/adis16470"
	"github.com/jlmcmchl/ADIS16470-RoboRIO-Driver/ahrs"
	log "github.com/sirupsen/logrus"
)

const listenPeriod = 100 * time.Millisecond

// IMUListener snapshots the driver on a fixed period and broadcasts each
// snapshot to the room.
type IMUListener struct {
	r    *room
	imu  *adis16470.IMU
	data *IMUData
}

func NewIMUListener(r *room, imu *adis16470.IMU) *IMUListener {
	return &IMUListener{r: r, imu: imu, data: new(IMUData)}
}

func (l *IMUListener) update() {
	l.data.T = float64(time.Now().UnixNano()/1000) / 1e6

	l.data.YawAngle = l.imu.Angle()
	l.data.YawAxis = l.imu.YawAxis().String()
	l.data.Rate = l.imu.Rate()

	l.data.GyroX = l.imu.GyroInstantX()
	l.data.GyroY = l.imu.GyroInstantY()
	l.data.GyroZ = l.imu.GyroInstantZ()
	l.data.AccelX = l.imu.AccelInstantX()
	l.data.AccelY = l.imu.AccelInstantY()
	l.data.AccelZ = l.imu.AccelInstantZ()

	l.data.CompAngleX = l.imu.ComplementaryAngleX()
	l.data.CompAngleY = l.imu.ComplementaryAngleY()
	l.data.AccelAngleX = l.imu.FilteredAccelAngleX()
	l.data.AccelAngleY = l.imu.FilteredAccelAngleY()

	q := ahrs.ToQuaternion(
		l.data.CompAngleX*adis16470.DegToRad,
		l.data.CompAngleY*adis16470.DegToRad,
		l.data.YawAngle*adis16470.DegToRad)
	l.data.Qw = q.W
	l.data.Qx = q.X
	l.data.Qy = q.Y
	l.data.Qz = q.Z
}

func (l *IMUListener) Run() {
	for {
		l.update()

		msg, err := json.Marshal(l.data)
		if err != nil {
			log.Errorln("imuweb: marshalling sample:", err)
			continue
		}

		log.Debugln("imuweb: sending sample to room")
		l.r.forward <- msg

		time.Sleep(listenPeriod)
	}
}
