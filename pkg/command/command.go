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

	"kymeta.com/kdk/go-rcdriver/pkg/config"
	"kymeta.com/kdk/go-rcdriver/pkg/log"
	"kymeta.com/kdk/go-rcdriver/pkg/pattern"
	"kymeta.com/kdk/go-rcdriver/pkg/srv/control"
)

var newControlServer = control.NewControlServer

// closeServer releases the device and the state database. A failed unmap is
// reported without changing the outcome of the command.
func closeServer(s *control.ControlServer) {
	if err := s.Close(); err != nil {
		log.Warning("%s", err)
	}
}

// The functions below drive the device directly from the calling process.
// They share the state database with the control server, so they fail fast
// while a server owns the device.

// Run initializes the device, commits p, enables continuous drive and holds
// the device until ctx ends. The drive is disabled on the way out.
func Run(ctx context.Context, cfg *config.Config, p pattern.Pattern) error {
	s, err := newControlServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeServer(s)

	if err := s.StartWith(p); err != nil {
		return err
	}
	log.Info("Pattern %s is driven, interrupt to stop", p)
	<-ctx.Done()
	if err := s.Shutdown(); err != nil {
		log.Warning("%s", err)
	}
	return nil
}

// DriveOff clears the continuous drive bit of an already running device.
func DriveOff(cfg *config.Config) error {
	s, err := newControlServer(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer closeServer(s)

	if err := s.Open(); err != nil {
		return err
	}
	return s.SetDrive(false)
}

// RegRead reads one register by name, or every readable register when name
// is empty.
func RegRead(cfg *config.Config, name string) ([]*control.RegHex, error) {
	s, err := newControlServer(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	defer closeServer(s)

	if err := s.Open(); err != nil {
		return nil, err
	}
	if name == "" {
		return s.RegReadAll()
	}
	reg, err := s.RegRead(name)
	if err != nil {
		return nil, err
	}
	return []*control.RegHex{reg}, nil
}

func RegWrite(cfg *config.Config, name string, value uint32) error {
	s, err := newControlServer(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer closeServer(s)

	if err := s.Open(); err != nil {
		return err
	}
	return s.RegWrite(name, value)
}

// State returns the journaled registers and the last stored snapshot without
// touching the device.
func State(cfg *config.Config) ([]*control.RegHex, *control.Snapshot, error) {
	s, err := newControlServer(context.Background(), cfg)
	if err != nil {
		return nil, nil, err
	}
	defer closeServer(s)
	return s.Journal()
}
