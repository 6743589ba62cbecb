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

type Timing struct {
	StxClkMatch       uint32
	SupplySwitchDelay uint32
	GateDelay         uint32
	TotalShift        uint32
	StartCycleDelay   uint32
	SckMatch          uint32
	RowSelect         [5]uint32
	WaitForDataValid  uint32
}

func DefaultTiming() Timing {
	return Timing{
		StxClkMatch:       8,
		SupplySwitchDelay: 10,
		GateDelay:         119,
		TotalShift:        105,
		StartCycleDelay:   7200,
		SckMatch:          0,
		RowSelect:         [5]uint32{0xFFFFFFFF, 0xFFFFFFFF, 0x0000FFFF, 0xFF000000, 0x0001FFFF},
		WaitForDataValid:  2399,
	}
}

type RegOp struct {
	Reg   device.RegAlias
	Value uint32
}

// Initializer programs the default configuration of the core.
type Initializer struct {
	timing Timing
}

func NewInitializer(timing Timing) *Initializer {
	return &Initializer{timing: timing}
}

// Sequence returns the ordered register writes. The interrupt status is
// cleared first and the row selects follow every timing register.
func (i *Initializer) Sequence() []RegOp {
	t := i.timing
	ops := []RegOp{
		{Reg: device.RegConiferISR, Value: 0},
		{Reg: device.RegCtrl, Value: 0},
		{Reg: device.RegStxClkMatch, Value: t.StxClkMatch},
		{Reg: device.RegSupplySwitchDly, Value: t.SupplySwitchDelay},
		{Reg: device.RegGateDly, Value: t.GateDelay},
		{Reg: device.RegTotalShift, Value: t.TotalShift},
		{Reg: device.RegStartCycleDly, Value: t.StartCycleDelay},
		{Reg: device.RegSckMatch, Value: t.SckMatch},
		{Reg: device.RegWaitForDataValid, Value: t.WaitForDataValid},
	}
	for n, alias := range device.RowSelect {
		ops = append(ops, RegOp{Reg: alias, Value: t.RowSelect[n]})
	}
	return append(ops, RegOp{Reg: device.RegPatternRAM, Value: 0})
}

func (i *Initializer) Initialize(s *device.Session) error {
	log.Info("Initializing row and column driver on %s", s.Path())
	for _, op := range i.Sequence() {
		if err := s.WriteReg(op.Reg, op.Value); err != nil {
			return err
		}
		log.Debug("%s <- 0x%08x", s.RegisterMap()[op.Reg].Name, op.Value)
	}
	if value, err := s.ReadReg(device.RegStartCycleDly); err == nil {
		log.Debug("start_cycle_dly_match_val = %d", value)
	}
	return nil
}
