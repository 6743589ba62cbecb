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

package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/device"
	"kymeta.com/kdk/go-rcdriver/pkg/driver"
	"kymeta.com/kdk/go-rcdriver/pkg/pattern"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Device.Backend = device.BackendSim
	cfg.Aperture = config.ApertureConfig{Rows: 16, Columns: 16, RowGroupSize: 1}
	cfg.Handshake = config.HandshakeConfig{PollIntervalMillis: 1, TimeoutMillis: 50}
	cfg.DBPath = filepath.Join(t.TempDir(), "state.db")
	return cfg
}

func newTestServer(t *testing.T) (*ControlServer, *device.Sim, *httptest.Server) {
	t.Helper()
	cfg := testConfig(t)
	regState, err := NewRegState(context.Background(), cfg.DBPath, cfg.Device.Name)
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
	s := NewControlServerWithDriver(context.Background(), cfg, drv, regState)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(NewApiServer(s.Context, cfg, s).Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Shutdown()
		regState.Close()
	})
	return s, sim, ts
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body interface{}) int {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestRegEndpoints(t *testing.T) {
	_, sim, ts := newTestServer(t)

	reg := &RegHex{}
	if code := getJSON(t, ts.URL+"/api/reg/r/gate_dly_match_val", reg); code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	if reg.Value != "0x00000077" || reg.Addr != "0x000c" {
		t.Errorf("unexpected register %+v", reg)
	}
	if code := getJSON(t, ts.URL+"/api/reg/r/no_such_reg", nil); code != http.StatusNotFound {
		t.Errorf("unknown register: status %d", code)
	}

	var regs []*RegHex
	if code := getJSON(t, ts.URL+"/api/reg/r", &regs); code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	if len(regs) != int(device.RegAliasLimit)-1 {
		t.Errorf("expected %d registers, got %d", int(device.RegAliasLimit)-1, len(regs))
	}

	if code := postJSON(t, ts.URL+"/api/reg/w", &RegHex{Name: "sck_match_val", Value: "0x5"}); code != http.StatusOK {
		t.Errorf("write: status %d", code)
	}
	if got := sim.Peek(device.RegMap.Offset(device.RegSckMatch)); got != 5 {
		t.Errorf("sck_match_val = %d, want 5", got)
	}
	if code := postJSON(t, ts.URL+"/api/reg/w", &RegHex{Name: "version", Value: "1"}); code != http.StatusForbidden {
		t.Errorf("write to read only register: status %d", code)
	}
	if code := postJSON(t, ts.URL+"/api/reg/w", &RegHex{Name: "sck_match_val", Value: "zz"}); code != http.StatusBadRequest {
		t.Errorf("bad value: status %d", code)
	}
}

func TestPatternEndpoints(t *testing.T) {
	_, _, ts := newTestServer(t)

	if code := postJSON(t, ts.URL+"/api/pattern", &PatternSetup{Pattern: "checkerboard"}); code != http.StatusOK {
		t.Fatalf("pattern: status %d", code)
	}
	resp := &StateResp{}
	if code := getJSON(t, ts.URL+"/api/state", resp); code != http.StatusOK {
		t.Fatalf("state: status %d", code)
	}
	status := resp.Status
	if status.Pattern != "checkerboard" || status.Active != "A" || status.Drive != "enabled" {
		t.Errorf("unexpected status %+v", status)
	}
	if resp.Snapshot == nil || resp.Snapshot.Pattern != "checkerboard" || len(resp.Snapshot.Mask) != 16 {
		t.Errorf("unexpected snapshot %+v", resp.Snapshot)
	}
	journaled := false
	for _, reg := range resp.Registers {
		if reg.Name == "bank_sel_conifer" {
			journaled = true
		}
		if strings.HasPrefix(reg.Name, "pattern_ram") {
			t.Errorf("pattern ram word journaled: %+v", reg)
		}
	}
	if !journaled {
		t.Errorf("bank_sel_conifer missing from journal: %+v", resp.Registers)
	}

	mask := pattern.NewMask(16, 16)
	if code := getJSON(t, ts.URL+"/api/pattern/A", mask); code != http.StatusOK {
		t.Fatalf("readback: status %d", code)
	}
	want, _ := pattern.Build(pattern.Pattern{Kind: pattern.Checkerboard}, 16, 16)
	if !mask.Equal(want) {
		t.Errorf("readback mask\n%s\nwant\n%s", mask, want)
	}

	custom := pattern.NewMask(2, 2)
	if code := postJSON(t, ts.URL+"/api/pattern", &PatternSetup{Pattern: "custom", Bitmap: custom}); code != http.StatusBadRequest {
		t.Errorf("mismatched bitmap: status %d", code)
	}
	if code := postJSON(t, ts.URL+"/api/pattern", &PatternSetup{Pattern: "stripes"}); code != http.StatusBadRequest {
		t.Errorf("unknown pattern: status %d", code)
	}
}

func TestDriveEndpoint(t *testing.T) {
	s, sim, ts := newTestServer(t)
	ctrl := device.RegMap.Offset(device.RegCtrl)

	status := driver.Status{}
	if code := getJSON(t, ts.URL+"/api/drive/off", &status); code != http.StatusOK {
		t.Fatalf("drive off: status %d", code)
	}
	if status.Drive != "disabled" || sim.Peek(ctrl)&1 != 0 {
		t.Errorf("drive still enabled: %+v", status)
	}
	if code := getJSON(t, ts.URL+"/api/drive/on", &status); code != http.StatusOK {
		t.Fatalf("drive on: status %d", code)
	}
	if status.Drive != "enabled" || sim.Peek(ctrl)&1 != 1 {
		t.Errorf("drive not enabled: %+v", status)
	}
	if code := getJSON(t, ts.URL+"/api/drive/toggle", nil); code != http.StatusNotFound {
		t.Errorf("unknown action: status %d", code)
	}

	if err := s.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if sim.Peek(ctrl)&1 != 0 || !sim.Closed() {
		t.Errorf("shutdown left drive enabled or device open")
	}
	if code := getJSON(t, ts.URL+"/api/drive/on", nil); code != http.StatusServiceUnavailable {
		t.Errorf("drive after shutdown: status %d", code)
	}
}

func TestPatternTimeoutIsFatal(t *testing.T) {
	s, sim, ts := newTestServer(t)
	sim.ISRStuck = true

	if code := postJSON(t, ts.URL+"/api/pattern", &PatternSetup{Pattern: "all-on"}); code != http.StatusGatewayTimeout {
		t.Errorf("expected gateway timeout, got %d", code)
	}
	select {
	case err := <-s.fatal:
		if !IsFatal(err) {
			t.Errorf("unexpected fatal error %v", err)
		}
	default:
		t.Errorf("timeout did not stop the server")
	}
	if !sim.Closed() || sim.Peek(device.RegMap.Offset(device.RegCtrl))&1 != 0 {
		t.Errorf("driver not shut down after timeout")
	}
}

func TestRegStateJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "state.db")
	st, err := NewRegState(context.Background(), path, "kdk")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	j := st.Journal("kdk")
	if err := j.Record(36, 1); err != nil {
		t.Fatal(err)
	}
	if err := j.Record(device.PatternRAMOffset+8, 0xff00); err != nil {
		t.Fatal(err)
	}
	value, err := st.GetReg(36, "kdk")
	if err != nil || value != 1 {
		t.Errorf("GetReg(36) = %d, %v", value, err)
	}
	if _, err := st.GetReg(device.PatternRAMOffset+8, "kdk"); err == nil {
		t.Errorf("pattern ram word was journaled")
	}
	if _, err := st.GetReg(0, "other"); err == nil {
		t.Errorf("expected missing bucket error")
	}

	snap, err := st.GetSnapshot("kdk")
	if err != nil || snap != nil {
		t.Errorf("expected no snapshot, got %+v %v", snap, err)
	}
	want := &Snapshot{Status: driver.Status{Device: "/dev/x", Open: true, Drive: "enabled", Pattern: "all-off"}, Mask: []string{"00", "00"}}
	if err := st.SetSnapshot(want, "kdk"); err != nil {
		t.Fatal(err)
	}
	snap, err = st.GetSnapshot("kdk")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Pattern != "all-off" || snap.Drive != "enabled" || len(snap.Mask) != 2 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestRegWriteKeepsBankAndDriveInSync(t *testing.T) {
	s, sim, ts := newTestServer(t)

	if got := s.Status().Active; got != "B" {
		t.Fatalf("active bank after start = %s, want B", got)
	}
	conifer := device.RegMap.Offset(device.RegBankSelConifer)
	var accessErr device.ErrAccess
	for _, name := range []string{"bank_sel_conifer", "bank_sel_hps", "conifer_isr"} {
		if err := s.RegWrite(name, 0); !errors.As(err, &accessErr) {
			t.Errorf("write to %s: expected ErrAccess, got %v", name, err)
		}
	}
	if sim.Peek(conifer) != 1 {
		t.Errorf("bank_sel_conifer changed to %d", sim.Peek(conifer))
	}
	if code := postJSON(t, ts.URL+"/api/reg/w", &RegHex{Name: "bank_sel_conifer", Value: "0"}); code != http.StatusForbidden {
		t.Errorf("bank select write: status %d", code)
	}

	// bank A is standby, its first word may be poked
	if err := s.RegWrite("pattern_ram", 0x100); err != nil {
		t.Errorf("write to standby bank: %v", err)
	}

	sim.ResetOps()
	if err := s.ApplyPattern(pattern.Pattern{Kind: pattern.AllOn}); err != nil {
		t.Fatal(err)
	}
	bankB := driver.BankB.Offset()
	for _, op := range sim.Writes() {
		if op.Offset >= bankB && op.Offset < bankB+driver.BankSize {
			t.Fatalf("pattern written to active bank B at 0x%x", op.Offset)
		}
	}
	if err := s.RegWrite("pattern_ram", 0); !errors.As(err, &accessErr) {
		t.Errorf("write to active bank A: expected ErrAccess, got %v", err)
	}

	ctrl := device.RegMap.Offset(device.RegCtrl)
	if err := s.RegWrite("ctrl_reg", 0); err != nil {
		t.Fatal(err)
	}
	if st := s.Status(); st.Drive != "disabled" || sim.Peek(ctrl)&1 != 0 {
		t.Errorf("drive state %s with ctrl=0x%x", st.Drive, sim.Peek(ctrl))
	}
	if err := s.RegWrite("ctrl_reg", 1); err != nil {
		t.Fatal(err)
	}
	if st := s.Status(); st.Drive != "enabled" {
		t.Errorf("drive state %s after enabling through ctrl_reg", st.Drive)
	}
}
