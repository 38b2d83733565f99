package main

import (
	"math"
	"net/http"
	"time"

	"github.com/jlmcmchl/ADIS16470-RoboRIO-Driver/adis16470"
	"github.com/jlmcmchl/ADIS16470-RoboRIO-Driver/bus"
	"github.com/jlmcmchl/ADIS16470-RoboRIO-Driver/sim"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "imuweb",
	Short: "live ADIS16470 dashboard over websockets",
	Long: `imuweb runs the ADIS16470 driver and publishes every reading to
connected websocket clients, with a small built-in page that renders the
live yaw angle. With --sim it serves synthesized motion instead of
hardware, which is handy for dashboard work away from the bench.`,
	RunE:         serve,
	SilenceUsage: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "print the resolved configuration as YAML",
	Long: `init resolves the configuration exactly the way serve does and
prints it as YAML, ready to save as imuweb.yaml.`,
	RunE:         printConfig,
	SilenceUsage: true,
}

func init() {
	settingsFlags(rootCmd)
	settingsFlags(initCmd)
	rootCmd.AddCommand(initCmd)
}

func settingsFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "configuration file path")
	cmd.Flags().String("addr", DefaultAddr, "address to serve on")
	cmd.Flags().Bool("sim", false, "serve synthesized motion instead of hardware")
	cmd.Flags().Int("channel", DefaultChannel, "SPI channel the chip is wired to")
	cmd.Flags().Int("trigger", DefaultTrigger, "data ready GPIO number")
	cmd.Flags().Int("reset", DefaultReset, "reset GPIO number")
	cmd.Flags().Int("ready", DefaultReady, "status LED GPIO number")
	cmd.Flags().String("axis", DefaultAxis, "yaw axis: x, y or z")
	cmd.Flags().String("cal", DefaultCal, "calibration window, 32ms to 64s in powers of two")
	cmd.Flags().Bool("debug", false, "toggle debug logging")
}

func serve(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if s.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	axis, err := s.yawAxis()
	if err != nil {
		return err
	}
	cal, err := s.calTime()
	if err != nil {
		return err
	}

	cfg := adis16470.Config{YawAxis: axis, CalTime: cal}
	var port *sim.Port
	if s.Sim {
		port = sim.NewPort()
		cfg.Bus = port
		cfg.TriggerPin = &sim.Pin{}
		log.Infoln("imuweb: serving synthesized motion")
	} else {
		cfg.Bus = bus.EmbdPort{Channel: byte(s.Channel)}
		cfg.TriggerPin = bus.GPIO(s.Trigger)
		cfg.ResetPin = bus.GPIO(s.Reset)
		cfg.ReadyPin = bus.GPIO(s.Ready)
	}

	imu, err := adis16470.New(cfg)
	if err != nil {
		return errors.Wrap(err, "imuweb: starting driver")
	}
	defer imu.Close()
	if port != nil {
		go feedScenario(port)
	}

	r := newRoom()
	go r.run()
	go NewIMUListener(r, imu).Run()

	http.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(dashboardHTML))
	})
	http.Handle("/imuweb", r)
	log.Infoln("imuweb: serving on", s.Addr)
	return http.ListenAndServe(s.Addr, nil)
}

// feedScenario synthesizes frames for the driver when no hardware is
// attached: a repeating yaw sweep with a brief lateral tilt.
func feedScenario(port *sim.Port) {
	profile := sim.Scenario{
		T:      []float64{0, 2, 4, 6, 8},
		Rate:   []float64{0, 90, 90, -90, 0},
		AccelX: []float64{0, 0, 0.1, 0, 0},
		AccelY: []float64{0, 0, 0, 0, 0},
		AccelZ: []float64{1, 1, 1, 1, 1},
	}
	b := sim.NewFrameBuilder(0)
	feed := time.NewTicker(10 * time.Millisecond)
	defer feed.Stop()
	t := 0.0
	for range feed.C {
		for i := 0; i < 20; i++ {
			port.PushWords(b.Next(500, profile.At(math.Mod(t, 8))))
			t += 0.0005
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err)
	}
}

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>ADIS16470</title>
<style>
body { font-family: sans-serif; margin: 2em; }
td { padding: 0.2em 1em 0.2em 0; }
#angle { font-size: 3em; }
</style>
</head>
<body>
<h1>ADIS16470</h1>
<p id="angle">?</p>
<table>
<tr><td>Yaw axis</td><td id="axis">?</td></tr>
<tr><td>Rate</td><td id="rate">?</td></tr>
<tr><td>Gyro</td><td id="gyro">?</td></tr>
<tr><td>Accel</td><td id="accel">?</td></tr>
<tr><td>Tilt (fused)</td><td id="comp">?</td></tr>
<tr><td>Quaternion</td><td id="quat">?</td></tr>
</table>
<script>
var ws = new WebSocket("ws://" + location.host + "/imuweb");
function f(x) { return x.toFixed(2); }
ws.onmessage = function (e) {
	var d = JSON.parse(e.data);
	document.getElementById("angle").textContent = f(d.YawAngle) + "°";
	document.getElementById("axis").textContent = d.YawAxis;
	document.getElementById("rate").textContent = f(d.Rate) + " °/s";
	document.getElementById("gyro").textContent = f(d.GyroX) + ", " + f(d.GyroY) + ", " + f(d.GyroZ) + " °/s";
	document.getElementById("accel").textContent = f(d.AccelX) + ", " + f(d.AccelY) + ", " + f(d.AccelZ) + " G";
	document.getElementById("comp").textContent = f(d.CompAngleX) + ", " + f(d.CompAngleY) + " °";
	document.getElementById("quat").textContent = f(d.Qw) + ", " + f(d.Qx) + ", " + f(d.Qy) + ", " + f(d.Qz);
};
ws.onclose = function () {
	document.getElementById("angle").textContent = "disconnected";
};
</script>
</body>
</html>
`
