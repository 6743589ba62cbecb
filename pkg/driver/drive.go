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
	"kymeta.com/kdk/go-rcdriver/pkg/device"
	"kymeta.com/kdk/go-rcdriver/pkg/log"
)

type DriveState int

const (
	Disabled DriveState = iota
	Enabled
)

func (d DriveState) String() string {
	if d == Enabled {
		return "enabled"
	}
	return "disabled"
}

type DriveEnableController struct {
	state DriveState
}

func NewDriveEnableController() *DriveEnableController {
	return &DriveEnableController{state: Disabled}
}

func (d *DriveEnableController) State() DriveState {
	return d.state
}

// SetContinuousDrive sets or clears ContinuousDriveEnable.
func (d *DriveEnableController) SetContinuousDrive(s *device.Session, enabled bool) error {
	if err := s.SetCommand(device.ContinuousDriveEnable, enabled); err != nil {
		return err
	}
	if enabled {
		d.state = Enabled
	} else {
		d.state = Disabled
	}
	log.Info("Continuous drive %s", d.state)
	return nil
}

// Sync reads the drive state back from the hardware.
func (d *DriveEnableController) Sync(s *device.Session) error {
	on, err := s.Command(device.ContinuousDriveEnable)
	if err != nil {
		return err
	}
	if on {
		d.state = Enabled
	} else {
		d.state = Disabled
	}
	return nil
}
