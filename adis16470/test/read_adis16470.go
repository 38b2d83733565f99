package main

import (
	"fmt"
	"time"

	"github.com/jlmcmchl/ADIS16470-RoboRIO-Driver/adis16470"
	"github.com/jlmcmchl/ADIS16470-RoboRIO-Driver/bus"
)

func main() {
	imu, err := adis16470.New(adis16470.Config{
		Bus:        bus.EmbdPort{Channel: 0},
		TriggerPin: bus.GPIO(26),
		ResetPin:   bus.GPIO(27),
		ReadyPin:   bus.GPIO(28),
	})
	if err != nil {
		fmt.Printf("Error: couldn't initialize ADIS16470: %s\n", err)
		return
	}
	defer imu.Close()

	fmt.Println("t,angle,rate,compX,compY")

	start := time.Now()
	clock := time.NewTicker(100 * time.Millisecond)
	for range clock.C {
		fmt.Printf("%6.2f,%8.2f,%7.2f,%6.2f,%6.2f\n",
			time.Since(start).Seconds(), imu.Angle(), imu.Rate(),
			imu.ComplementaryAngleX(), imu.ComplementaryAngleY())
	}
}
