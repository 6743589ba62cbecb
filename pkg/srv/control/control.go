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
	"context"
	"errors"
	"sync"

	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/device"
	"kymeta.com/kdk/go-rcdriver/pkg/driver"
	"kymeta.com/kdk/go-rcdriver/pkg/log"
	"kymeta.com/kdk/go-rcdriver/pkg/pattern"
)

// ControlServer owns the device session for its whole lifetime and
// serializes every request against it.
type ControlServer struct {
	context.Context
	*config.Config
	mu     sync.Mutex
	driver *driver.Driver
	state  *RegState
	api    *ApiServer
	fatal  chan error
}

func NewControlServer(ctx context.Context, cfg *config.Config) (*ControlServer, error) {
	log.Debug("Initializing control server for device %s at %s", cfg.Device.Name, cfg.Device.Path)

	regState, err := NewRegState(ctx, cfg.DBPath, cfg.Device.Name)
	if err != nil {
		return nil, err
	}
	drv, err := driver.NewFromConfig(cfg, regState.Journal(cfg.Device.Name))
	if err != nil {
		regState.Close()
		return nil, err
	}
	return NewControlServerWithDriver(ctx, cfg, drv, regState), nil
}

func NewControlServerWithDriver(ctx context.Context, cfg *config.Config, drv *driver.Driver, regState *RegState) *ControlServer {
	return &ControlServer{
		Context: ctx,
		Config:  cfg,
		driver:  drv,
		state:   regState,
		fatal:   make(chan error, 1),
	}
}

// Run brings the driver up, serves the API and shuts the driver down when the
// context ends, the listener fails or a handshake times out.
func (s *ControlServer) Run() error {
	defer s.state.Close()

	if err := s.Start(); err != nil {
		return err
	}
	defer s.Shutdown()

	s.api = NewApiServer(s.Context, s.Config, s)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.api.Run()
	}()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err := <-errChan:
		return err
	case err := <-s.fatal:
		return err
	}
}

func (s *ControlServer) Start() error {
	return s.StartWith(pattern.Pattern{Kind: pattern.AllOff})
}

// StartWith runs the full bring-up committing p as the first pattern.
func (s *ControlServer) StartWith(p pattern.Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.driver.StartWith(s.Context, p)
	s.snapshot()
	return err
}

// Open maps the device without programming it.
func (s *ControlServer) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.Open()
}

// Close unmaps the device without touching the drive enable bit and
// releases the state database.
func (s *ControlServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.driver.Close()
	s.state.Close()
	return err
}

func (s *ControlServer) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.driver.Shutdown()
	if err != nil {
		log.Warning("%s", err)
	}
	s.snapshot()
	return err
}

// snapshot stores the driver state. Callers hold mu.
func (s *ControlServer) snapshot() {
	snap := &Snapshot{Status: s.driver.Status()}
	if active, ok := s.driver.Banks().Active(); ok && s.driver.IsOpen() {
		if mask, err := s.driver.Readback(active); err == nil {
			snap.Mask = mask.Lines()
		}
	}
	if err := s.state.SetSnapshot(snap, s.Device.Name); err != nil {
		log.Warning("Failed to store driver snapshot: %s", err)
	}
}

func (s *ControlServer) fail(err error) {
	select {
	case s.fatal <- err:
	default:
	}
}

// ApplyPattern commits p. A timed out handshake leaves the driver shut down
// and stops the server.
func (s *ControlServer) ApplyPattern(p pattern.Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.driver.Apply(s.Context, p)
	if err != nil && !s.driver.IsOpen() {
		s.fail(err)
	}
	s.snapshot()
	return err
}

func (s *ControlServer) SetDrive(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.driver.SetDrive(enabled)
	s.snapshot()
	return err
}

func (s *ControlServer) Status() driver.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.Status()
}

func (s *ControlServer) Readback(bank driver.Bank) (*pattern.Mask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.Readback(bank)
}

func (s *ControlServer) session() (*device.Session, error) {
	if !s.driver.IsOpen() {
		return nil, driver.ErrNotOpen{}
	}
	return s.driver.Session(), nil
}

func lookupReg(name string) (*device.Register, error) {
	reg, ok := device.RegMap.ByName(name)
	if !ok {
		return nil, ErrUnknownRegister{Name: name}
	}
	return reg, nil
}

func (s *ControlServer) RegRead(name string) (*RegHex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, err := lookupReg(name)
	if err != nil {
		return nil, err
	}
	sess, err := s.session()
	if err != nil {
		return nil, err
	}
	value, err := sess.Read(reg.Offset)
	if err != nil {
		return nil, err
	}
	return newRegHex(reg.Offset, value), nil
}

// RegReadAll reads every readable single word register.
func (s *ControlServer) RegReadAll() ([]*RegHex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.session()
	if err != nil {
		return nil, err
	}
	var regs []*RegHex
	for _, reg := range device.RegMap.Sorted() {
		if reg.Words > 1 || !reg.Access.CanRead() {
			continue
		}
		value, err := sess.Read(reg.Offset)
		if err != nil {
			return nil, err
		}
		regs = append(regs, newRegHex(reg.Offset, value))
	}
	return regs, nil
}

func (s *ControlServer) RegWrite(name string, value uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, err := lookupReg(name)
	if err != nil {
		return err
	}
	err = s.driver.WriteReg(reg, value)
	if err == nil && reg.Alias == device.RegCtrl {
		s.snapshot()
	}
	return err
}

// Journal returns the shadow registers and the last stored snapshot.
func (s *ControlServer) Journal() ([]*RegHex, *Snapshot, error) {
	regs, err := s.state.GetRegAll(s.Device.Name)
	if err != nil {
		return nil, nil, err
	}
	snap, err := s.state.GetSnapshot(s.Device.Name)
	if err != nil {
		return nil, nil, err
	}
	return regs, snap, nil
}

// IsFatal reports whether err leaves the server unusable.
func IsFatal(err error) bool {
	var timeout driver.ErrTimeout
	return errors.As(err, &timeout)
}
