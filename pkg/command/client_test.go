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

package command

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/device"
	"kymeta.com/kdk/go-rcdriver/pkg/driver"
	"kymeta.com/kdk/go-rcdriver/pkg/pattern"
	"kymeta.com/kdk/go-rcdriver/pkg/srv/control"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Device.Backend = device.BackendSim
	cfg.Aperture = config.ApertureConfig{Rows: 8, Columns: 8, RowGroupSize: 1}
	cfg.Handshake = config.HandshakeConfig{PollIntervalMillis: 1, TimeoutMillis: 50}
	cfg.DBPath = filepath.Join(t.TempDir(), "state.db")
	return cfg
}

func newTestClient(t *testing.T) (*ApiClient, *device.Sim) {
	t.Helper()
	cfg := testConfig(t)
	regState, err := control.NewRegState(context.Background(), cfg.DBPath, cfg.Device.Name)
	if err != nil {
		t.Fatal(err)
	}
	opts, err := driver.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	opts.Journal = regState.Journal(cfg.Device.Name)
	sim := device.NewSim()
	drv, err := driver.New(cfg.Device.Path, sim.Opener(), opts)
	if err != nil {
		t.Fatal(err)
	}
	s := control.NewControlServerWithDriver(context.Background(), cfg, drv, regState)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(control.NewApiServer(context.Background(), cfg, s).Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Shutdown()
		regState.Close()
	})
	client := NewApiClient(cfg)
	client.ApiPrefix = ts.URL + "/api"
	return client, sim
}

func TestApiClientRegisters(t *testing.T) {
	c, sim := newTestClient(t)

	reg, err := c.RegRead("total_shift_amt")
	if err != nil {
		t.Fatal(err)
	}
	if reg.Value != "0x00000069" {
		t.Errorf("total_shift_amt = %s", reg.Value)
	}
	regs, err := c.RegReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(regs) == 0 {
		t.Errorf("no registers read")
	}

	if err := c.RegWrite("sck_match_val", "0x10"); err != nil {
		t.Fatal(err)
	}
	if got := sim.Peek(device.RegMap.Offset(device.RegSckMatch)); got != 0x10 {
		t.Errorf("sck_match_val = 0x%x", got)
	}
	err = c.RegWrite("version", "1")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("expected forbidden, got %v", err)
	}
	if _, err := c.RegRead("nope"); err == nil {
		t.Errorf("expected error for unknown register")
	}
}

func TestApiClientPattern(t *testing.T) {
	c, _ := newTestClient(t)

	status, err := c.Pattern(&control.PatternSetup{Pattern: "all-on"})
	if err != nil {
		t.Fatal(err)
	}
	if status.Pattern != "all-on" || status.Active != "A" {
		t.Errorf("unexpected status %+v", status)
	}
	mask, err := c.Readback("A")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := pattern.Build(pattern.Pattern{Kind: pattern.AllOn}, 8, 8)
	if !mask.Equal(want) {
		t.Errorf("readback\n%s", mask)
	}

	status, err = c.Drive(false)
	if err != nil {
		t.Fatal(err)
	}
	if status.Drive != "disabled" {
		t.Errorf("drive = %s", status.Drive)
	}
	state, err := c.State()
	if err != nil {
		t.Fatal(err)
	}
	if state.Snapshot == nil || state.Snapshot.Drive != "disabled" {
		t.Errorf("unexpected snapshot %+v", state.Snapshot)
	}
}

func TestLocalCommands(t *testing.T) {
	cfg := testConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(200*time.Millisecond, cancel)
	if err := Run(ctx, cfg, pattern.Pattern{Kind: pattern.Checkerboard}); err != nil {
		t.Fatal(err)
	}
	regs, snap, err := State(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(regs) == 0 {
		t.Errorf("no journaled registers")
	}
	if snap == nil || snap.Pattern != "checkerboard" || snap.Drive != "disabled" || snap.Open {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}
