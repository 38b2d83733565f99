package main

// IMUData is one dashboard sample, marshalled to JSON for every
// connected client.
type IMUData struct {
	T float64 // Host timestamp, s since epoch

	YawAngle float64 // Integrated yaw angle, °
	YawAxis  string  // Axis the yaw angle integrates about
	Rate     float64 // Instantaneous yaw rate, °/s

	GyroX  float64 // Instantaneous gyro rates, °/s
	GyroY  float64
	GyroZ  float64
	AccelX float64 // Instantaneous accelerations, G
	AccelY float64
	AccelZ float64

	CompAngleX  float64 // Fused tilt angles, °
	CompAngleY  float64
	AccelAngleX float64 // Accelerometer-only tilt angles, °
	AccelAngleY float64

	Qw float64 // Orientation quaternion built from the fused angles
	Qx float64
	Qy float64
	Qz float64
}
