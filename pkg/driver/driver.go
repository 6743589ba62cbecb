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

package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/device"
	"kymeta.com/kdk/go-rcdriver/pkg/log"
	"kymeta.com/kdk/go-rcdriver/pkg/pattern"
)

type Options struct {
	Layout       Layout
	Timing       Timing
	PollInterval time.Duration
	Timeout      time.Duration
	WordDelay    time.Duration
	Journal      device.Journal
}

type Status struct {
	Device    string `json:"device"`
	Open      bool   `json:"open"`
	BankKnown bool   `json:"bankKnown"`
	Active    string `json:"active,omitempty"`
	Standby   string `json:"standby,omitempty"`
	Phase     string `json:"phase"`
	Drive     string `json:"drive"`
	Pattern   string `json:"pattern,omitempty"`
}

// Driver sequences the row and column driver over a single session.
type Driver struct {
	path    string
	opener  device.Opener
	opts    Options
	session *device.Session
	init    *Initializer
	banks   *BankSelector
	writer  *PatternBufferWriter
	drive   *DriveEnableController
	pattern string
}

func New(path string, opener device.Opener, opts Options) (*Driver, error) {
	if err := opts.Layout.Validate(); err != nil {
		return nil, err
	}
	if opts.PollInterval <= 0 || opts.Timeout <= 0 {
		return nil, fmt.Errorf("poll interval and timeout must be positive")
	}
	d := &Driver{
		path:   path,
		opener: opener,
		opts:   opts,
		init:   NewInitializer(opts.Timing),
	}
	d.reset()
	return d, nil
}

func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if len(cfg.Timing.RowSelect) != len(device.RowSelect) {
		return Options{}, fmt.Errorf("expected %d row select values, got %d", len(device.RowSelect), len(cfg.Timing.RowSelect))
	}
	timing := Timing{
		StxClkMatch:       cfg.Timing.StxClkMatch,
		SupplySwitchDelay: cfg.Timing.SupplySwitchDelay,
		GateDelay:         cfg.Timing.GateDelay,
		TotalShift:        cfg.Timing.TotalShift,
		StartCycleDelay:   cfg.Timing.StartCycleDelay,
		SckMatch:          cfg.Timing.SckMatch,
		WaitForDataValid:  cfg.Timing.WaitForDataValid,
	}
	copy(timing.RowSelect[:], cfg.Timing.RowSelect)
	return Options{
		Layout: Layout{
			Rows:         cfg.Aperture.Rows,
			Columns:      cfg.Aperture.Columns,
			RowGroupSize: cfg.Aperture.RowGroupSize,
		},
		Timing:       timing,
		PollInterval: cfg.Handshake.PollInterval(),
		Timeout:      cfg.Handshake.Timeout(),
		WordDelay:    cfg.Handshake.WordDelay(),
	}, nil
}

func OpenerFor(backend string) (device.Opener, error) {
	switch backend {
	case device.BackendMmap:
		return device.OpenMmap, nil
	case device.BackendSim:
		return device.NewSim().Opener(), nil
	}
	return nil, fmt.Errorf("unknown device backend %q", backend)
}

// NewFromConfig builds a driver for the configured device. journal may be nil.
func NewFromConfig(cfg *config.Config, journal device.Journal) (*Driver, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts.Journal = journal
	opener, err := OpenerFor(cfg.Device.Backend)
	if err != nil {
		return nil, err
	}
	return New(cfg.Device.Path, opener, opts)
}

func (d *Driver) reset() {
	d.banks = NewBankSelector(d.opts.PollInterval, d.opts.Timeout)
	d.writer = NewPatternBufferWriter(d.opts.Layout, d.banks, d.opts.WordDelay)
	d.drive = NewDriveEnableController()
	d.pattern = ""
}

func (d *Driver) Layout() Layout {
	return d.opts.Layout
}

func (d *Driver) Session() *device.Session {
	return d.session
}

func (d *Driver) IsOpen() bool {
	return d.session != nil && d.session.IsOpen()
}

func (d *Driver) requireSession() (*device.Session, error) {
	if !d.IsOpen() {
		return nil, ErrNotOpen{}
	}
	return d.session, nil
}

// Open maps the device. Opening an open driver is a no-op.
func (d *Driver) Open() error {
	if d.IsOpen() {
		return nil
	}
	var opts []device.Option
	if d.opts.Journal != nil {
		opts = append(opts, device.WithJournal(d.opts.Journal))
	}
	s, err := device.Open(d.path, d.opener, opts...)
	if err != nil {
		return err
	}
	d.session = s
	d.reset()
	return nil
}

// Attach opens the device and picks up bank and drive state from hardware
// that is already initialized.
func (d *Driver) Attach() error {
	if err := d.Open(); err != nil {
		return err
	}
	if err := d.banks.Establish(d.session); err != nil {
		return d.abort(err)
	}
	if err := d.drive.Sync(d.session); err != nil {
		return d.abort(err)
	}
	return nil
}

// Start runs the full bring-up: initialize, establish the banks, commit an
// all-off pattern and enable continuous drive. Any failure after the device
// is mapped shuts the driver down before it is returned.
func (d *Driver) Start(ctx context.Context) error {
	return d.StartWith(ctx, pattern.Pattern{Kind: pattern.AllOff})
}

// StartWith is Start committing p instead of the all-off pattern.
func (d *Driver) StartWith(ctx context.Context, p pattern.Pattern) error {
	if err := d.Open(); err != nil {
		return err
	}
	if err := d.init.Initialize(d.session); err != nil {
		return d.abort(err)
	}
	if err := d.banks.Establish(d.session); err != nil {
		return d.abort(err)
	}
	if err := d.Apply(ctx, p); err != nil {
		return d.abort(err)
	}
	if err := d.SetDrive(true); err != nil {
		return d.abort(err)
	}
	return nil
}

// handshakeRegs are written only by the BankSelector once the banks are
// established.
var handshakeRegs = map[device.RegAlias]bool{
	device.RegConiferISR:     true,
	device.RegBankSelHPS:     true,
	device.RegBankSelConifer: true,
}

// WriteReg writes a single register on behalf of a caller outside the
// driver. With the banks established it refuses the handshake registers and
// words of the active bank, and it picks the drive state up again after a
// ctrl_reg write.
func (d *Driver) WriteReg(reg *device.Register, value uint32) error {
	s, err := d.requireSession()
	if err != nil {
		return err
	}
	if active, ok := d.banks.Active(); ok {
		if handshakeRegs[reg.Alias] {
			return device.ErrAccess{Offset: reg.Offset, What: "register is owned by the bank handshake"}
		}
		if reg.Alias == device.RegPatternRAM && inBank(active, reg.Offset) {
			return device.ErrAccess{Offset: reg.Offset, What: fmt.Sprintf("bank %s is active", active)}
		}
	}
	if err := s.Write(reg.Offset, value); err != nil {
		return err
	}
	if reg.Alias == device.RegCtrl {
		return d.drive.Sync(s)
	}
	return nil
}

func inBank(b Bank, offset uint32) bool {
	return offset >= b.Offset() && offset < b.Offset()+BankSize
}

// Apply builds the mask for p, writes it to the standby bank and makes it
// active. A timed out or cancelled handshake shuts the driver down.
func (d *Driver) Apply(ctx context.Context, p pattern.Pattern) error {
	s, err := d.requireSession()
	if err != nil {
		return err
	}
	layout := d.opts.Layout
	mask, err := pattern.Build(p, layout.Rows, layout.Columns)
	if err != nil {
		return err
	}
	if _, err := d.writer.Write(s, mask); err != nil {
		return err
	}
	if err := d.banks.Toggle(ctx, s); err != nil {
		var timeout ErrTimeout
		if errors.As(err, &timeout) || ctx.Err() != nil {
			return d.abort(err)
		}
		return err
	}
	d.pattern = p.String()
	log.Info("Pattern %s committed", d.pattern)
	return nil
}

func (d *Driver) SetDrive(enabled bool) error {
	s, err := d.requireSession()
	if err != nil {
		return err
	}
	return d.drive.SetContinuousDrive(s, enabled)
}

func (d *Driver) DriveState() DriveState {
	return d.drive.State()
}

func (d *Driver) Banks() *BankSelector {
	return d.banks
}

// Readback decodes the mask stored in bank.
func (d *Driver) Readback(bank Bank) (*pattern.Mask, error) {
	s, err := d.requireSession()
	if err != nil {
		return nil, err
	}
	return d.writer.Readback(s, bank)
}

func (d *Driver) Status() Status {
	st := Status{
		Device:  d.path,
		Open:    d.IsOpen(),
		Phase:   d.banks.Phase().String(),
		Drive:   d.drive.State().String(),
		Pattern: d.pattern,
	}
	if active, ok := d.banks.Active(); ok {
		st.BankKnown = true
		st.Active = active.String()
		st.Standby = active.Other().String()
	}
	return st
}

func (d *Driver) abort(err error) error {
	if !d.IsOpen() {
		return err
	}
	log.Error("Aborting: %s", err)
	if serr := d.Shutdown(); serr != nil {
		log.Warning("%s", serr)
	}
	return err
}

// Shutdown clears the drive enable bit and closes the session. It is safe to
// call more than once.
func (d *Driver) Shutdown() error {
	if !d.IsOpen() {
		return nil
	}
	if err := d.drive.SetContinuousDrive(d.session, false); err != nil {
		log.Error("Failed to disable continuous drive: %s", err)
	}
	return d.Close()
}

// Close unmaps the device without touching the drive enable bit.
func (d *Driver) Close() error {
	if d.session == nil {
		return nil
	}
	return d.session.Close()
}
