/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"sigs.k8s.io/yaml"
)

type DeviceConfig struct {
	Name    string `json:"name" koanf:"name"`
	Path    string `json:"path" koanf:"path"`
	Backend string `json:"backend" koanf:"backend"`
}

type ApertureConfig struct {
	Rows         int `json:"rows" koanf:"rows"`
	Columns      int `json:"columns" koanf:"columns"`
	RowGroupSize int `json:"rowGroupSize" koanf:"rowGroupSize"`
}

type TimingConfig struct {
	StxClkMatch       uint32   `json:"stxClkMatch" koanf:"stxClkMatch"`
	SupplySwitchDelay uint32   `json:"supplySwitchDelay" koanf:"supplySwitchDelay"`
	GateDelay         uint32   `json:"gateDelay" koanf:"gateDelay"`
	TotalShift        uint32   `json:"totalShift" koanf:"totalShift"`
	StartCycleDelay   uint32   `json:"startCycleDelay" koanf:"startCycleDelay"`
	SckMatch          uint32   `json:"sckMatch" koanf:"sckMatch"`
	RowSelect         []uint32 `json:"rowSelect" koanf:"rowSelect"`
	WaitForDataValid  uint32   `json:"waitForDataValid" koanf:"waitForDataValid"`
}

type HandshakeConfig struct {
	PollIntervalMillis int `json:"pollIntervalMillis" koanf:"pollIntervalMillis"`
	TimeoutMillis      int `json:"timeoutMillis" koanf:"timeoutMillis"`
	WordDelayMicros    int `json:"wordDelayMicros" koanf:"wordDelayMicros"`
}

func (h HandshakeConfig) PollInterval() time.Duration {
	return time.Duration(h.PollIntervalMillis) * time.Millisecond
}

func (h HandshakeConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutMillis) * time.Millisecond
}

func (h HandshakeConfig) WordDelay() time.Duration {
	return time.Duration(h.WordDelayMicros) * time.Microsecond
}

type ApiConfig struct {
	Address string `json:"address" koanf:"address"`
	Port    int    `json:"port" koanf:"port"`
}

func (a ApiConfig) Endpoint() string {
	return fmt.Sprintf("%s:%d", a.Address, a.Port)
}

type Config struct {
	Device    DeviceConfig    `json:"device" koanf:"device"`
	Aperture  ApertureConfig  `json:"aperture" koanf:"aperture"`
	Timing    TimingConfig    `json:"timing" koanf:"timing"`
	Handshake HandshakeConfig `json:"handshake" koanf:"handshake"`
	Api       ApiConfig       `json:"api" koanf:"api"`
	DBPath    string          `json:"dbPath" koanf:"dbPath"`
	LogLevel  string          `json:"logLevel" koanf:"logLevel"`
	filepath  string
}

func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(c.filepath, data, 0644)
}

// Load layers the file at path over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(NewDefaultConfig(), "koanf"), nil); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
			return nil, ErrConfigLoad{Path: path, Err: err}
		}
	} else if !os.IsNotExist(err) {
		return nil, ErrConfigLoad{Path: path, Err: err}
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, ErrConfigLoad{Path: path, Err: err}
	}
	c.filepath = path
	if err := c.Validate(); err != nil {
		return nil, ErrConfigLoad{Path: path, Err: err}
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.Device.Backend {
	case "mmap", "sim":
	default:
		return fmt.Errorf("device backend %q must be mmap or sim", c.Device.Backend)
	}
	if c.Aperture.Rows <= 0 || c.Aperture.Columns <= 0 || c.Aperture.RowGroupSize <= 0 {
		return fmt.Errorf("aperture %dx%d with %d words per row is invalid",
			c.Aperture.Rows, c.Aperture.Columns, c.Aperture.RowGroupSize)
	}
	if len(c.Timing.RowSelect) != 5 {
		return fmt.Errorf("timing.rowSelect needs 5 values, got %d", len(c.Timing.RowSelect))
	}
	if c.Handshake.PollIntervalMillis <= 0 || c.Handshake.TimeoutMillis <= 0 {
		return fmt.Errorf("handshake poll interval and timeout must be positive")
	}
	if c.Handshake.WordDelayMicros < 0 {
		return fmt.Errorf("handshake.wordDelayMicros must not be negative")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return home
}

func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ConfigDir, ConfigFile)
}

func DefaultDBPath() string {
	return filepath.Join(homeDir(), ConfigDir, DBFile)
}

func NewDefaultConfig() *Config {
	rowSelect := make([]uint32, len(DefaultRowSelect))
	copy(rowSelect, DefaultRowSelect)
	return &Config{
		Device: DeviceConfig{
			Name:    DefaultDeviceName,
			Path:    DefaultDevicePath,
			Backend: DefaultDeviceBackend,
		},
		Aperture: ApertureConfig{
			Rows:         DefaultRows,
			Columns:      DefaultColumns,
			RowGroupSize: DefaultRowGroupSize,
		},
		Timing: TimingConfig{
			StxClkMatch:       DefaultStxClkMatch,
			SupplySwitchDelay: DefaultSupplySwitchDelay,
			GateDelay:         DefaultGateDelay,
			TotalShift:        DefaultTotalShift,
			StartCycleDelay:   DefaultStartCycleDelay,
			SckMatch:          DefaultSckMatch,
			RowSelect:         rowSelect,
			WaitForDataValid:  DefaultWaitForDataValid,
		},
		Handshake: HandshakeConfig{
			PollIntervalMillis: DefaultPollIntervalMillis,
			TimeoutMillis:      DefaultTimeoutMillis,
			WordDelayMicros:    DefaultWordDelayMicros,
		},
		Api: ApiConfig{
			Address: DefaultApiAddress,
			Port:    DefaultApiPort,
		},
		DBPath:   DefaultDBPath(),
		LogLevel: DefaultLogLevel,
		filepath: DefaultConfigPath(),
	}
}

// WithPath returns c bound to a different config file.
func (c *Config) WithPath(path string) *Config {
	c.filepath = path
	return c
}
