package main

import (
	"fmt"
	"strings"

	"github.com/jlmcmchl/ADIS16470-RoboRIO-Driver/adis16470"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr    = ":8000"
	DefaultChannel = 0
	DefaultTrigger = 26
	DefaultReset   = 27
	DefaultReady   = 28
	DefaultAxis    = "z"
	DefaultCal     = "4s"
)

// Settings is the resolved server configuration. Sources layer in
// order: defaults, YAML config file, IMUWEB_* environment, flags.
type Settings struct {
	Addr    string `yaml:"addr"`
	Sim     bool   `yaml:"sim"`
	Channel int    `yaml:"channel"`
	Trigger int    `yaml:"trigger"`
	Reset   int    `yaml:"reset"`
	Ready   int    `yaml:"ready"`
	Axis    string `yaml:"axis"`
	Cal     string `yaml:"cal"`
	Debug   bool   `yaml:"debug"`
}

func loadSettings(cmd *cobra.Command) (*Settings, error) {
	v := viper.New()
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("sim", false)
	v.SetDefault("channel", DefaultChannel)
	v.SetDefault("trigger", DefaultTrigger)
	v.SetDefault("reset", DefaultReset)
	v.SetDefault("ready", DefaultReady)
	v.SetDefault("axis", DefaultAxis)
	v.SetDefault("cal", DefaultCal)
	v.SetDefault("debug", false)

	if file, err := cmd.Flags().GetString("config"); err == nil && file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("imuweb")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/imuweb")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("imuweb")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"addr", "sim", "channel", "trigger", "reset", "ready", "axis", "cal", "debug"} {
		_ = v.BindPFlag(name, cmd.Flags().Lookup(name))
	}

	if err := v.ReadInConfig(); err == nil {
		log.Debugln("imuweb: using config file:", v.ConfigFileUsed())
	}

	s := new(Settings)
	if err := v.Unmarshal(s); err != nil {
		return nil, errors.Wrap(err, "imuweb: unmarshalling configuration")
	}
	return s, nil
}

func printConfig(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "imuweb: marshalling configuration")
	}
	fmt.Print(string(out))
	return nil
}

func (s *Settings) yawAxis() (adis16470.Axis, error) {
	switch strings.ToLower(s.Axis) {
	case "x":
		return adis16470.AxisX, nil
	case "y":
		return adis16470.AxisY, nil
	case "z":
		return adis16470.AxisZ, nil
	}
	return 0, errors.Errorf("imuweb: unknown yaw axis %q", s.Axis)
}

var calWindows = map[string]adis16470.CalTime{
	"32ms":  adis16470.Cal32ms,
	"64ms":  adis16470.Cal64ms,
	"128ms": adis16470.Cal128ms,
	"256ms": adis16470.Cal256ms,
	"512ms": adis16470.Cal512ms,
	"1s":    adis16470.Cal1s,
	"2s":    adis16470.Cal2s,
	"4s":    adis16470.Cal4s,
	"8s":    adis16470.Cal8s,
	"16s":   adis16470.Cal16s,
	"32s":   adis16470.Cal32s,
	"64s":   adis16470.Cal64s,
}

func (s *Settings) calTime() (adis16470.CalTime, error) {
	if c, ok := calWindows[strings.ToLower(s.Cal)]; ok {
		return c, nil
	}
	return 0, errors.Errorf("imuweb: unknown calibration window %q", s.Cal)
}
