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

package device

import (
	"fmt"
	"sort"
)

// Layout of the memory mapped window exposed by the aperture control device.
const (
	PageSize   = 4096
	NumPages   = 16
	WindowSize = PageSize * NumPages

	PatternRAMOffset = 8 * PageSize
	PatternRAMSize   = 8 * PageSize
	PatternRAMWords  = PatternRAMSize / 4
)

type Access int

const (
	ReadWrite Access = iota
	ReadOnly
	WriteOnly
)

func (a Access) String() string {
	switch a {
	case ReadWrite:
		return "rw"
	case ReadOnly:
		return "r"
	case WriteOnly:
		return "w"
	}
	return fmt.Sprintf("Access(%d)", int(a))
}

func (a Access) CanRead() bool {
	return a != WriteOnly
}

func (a Access) CanWrite() bool {
	return a != ReadOnly
}

type RegAlias int

const (
	RegCtrl RegAlias = iota
	RegStxClkMatch
	RegSupplySwitchDly
	RegGateDly
	RegTotalShift
	RegStartCycleDly
	RegVersion
	RegSckMatch
	RegConiferISR
	RegBankSelHPS
	RegBankSelConifer
	RegRowSel0
	RegRowSel1
	RegRowSel2
	RegRowSel3
	RegRowSel4
	RegWaitForDataValid
	RegPatternRAM
	RegAliasLimit
)

// Register describes one entry of the register window. Words is the number of
// consecutive 32-bit words the entry spans; it is 1 for plain registers.
type Register struct {
	Alias  RegAlias
	Name   string
	Offset uint32
	Width  int
	Words  uint32
	Access Access
}

// Contains reports whether the byte offset falls inside the register.
func (r *Register) Contains(offset uint32) bool {
	return offset >= r.Offset && offset < r.Offset+4*r.Words
}

type RegisterMap map[RegAlias]*Register

func reg32(alias RegAlias, name string, offset uint32, access Access) *Register {
	return &Register{Alias: alias, Name: name, Offset: offset, Width: 32, Words: 1, Access: access}
}

// RegMap is the register map of the row and column driver FPGA core.
var RegMap = RegisterMap{
	RegCtrl:             reg32(RegCtrl, "ctrl_reg", 0, ReadWrite),
	RegStxClkMatch:      reg32(RegStxClkMatch, "stx_clk_match_val", 4, ReadWrite),
	RegSupplySwitchDly:  reg32(RegSupplySwitchDly, "supply_switch_dly_match_val", 8, ReadWrite),
	RegGateDly:          reg32(RegGateDly, "gate_dly_match_val", 12, ReadWrite),
	RegTotalShift:       reg32(RegTotalShift, "total_shift_amt", 16, ReadWrite),
	RegStartCycleDly:    reg32(RegStartCycleDly, "start_cycle_dly_match_val", 20, ReadWrite),
	RegVersion:          reg32(RegVersion, "version", 24, ReadOnly),
	RegSckMatch:         reg32(RegSckMatch, "sck_match_val", 28, ReadWrite),
	RegConiferISR:       reg32(RegConiferISR, "conifer_isr", 32, ReadWrite),
	RegBankSelHPS:       reg32(RegBankSelHPS, "bank_sel_hps", 36, ReadWrite),
	RegBankSelConifer:   reg32(RegBankSelConifer, "bank_sel_conifer", 40, ReadWrite),
	RegRowSel0:          reg32(RegRowSel0, "row_sel_0", 44, ReadWrite),
	RegRowSel1:          reg32(RegRowSel1, "row_sel_1", 48, ReadWrite),
	RegRowSel2:          reg32(RegRowSel2, "row_sel_2", 52, ReadWrite),
	RegRowSel3:          reg32(RegRowSel3, "row_sel_3", 56, ReadWrite),
	RegRowSel4:          reg32(RegRowSel4, "row_sel_4", 60, ReadWrite),
	RegWaitForDataValid: reg32(RegWaitForDataValid, "wait_for_data_valid_match_val", 64, ReadWrite),
	RegPatternRAM: {
		Alias:  RegPatternRAM,
		Name:   "pattern_ram",
		Offset: PatternRAMOffset,
		Width:  32,
		Words:  PatternRAMWords,
		Access: ReadWrite,
	},
}

// RowSelect lists the five row selection registers in bit order.
var RowSelect = [5]RegAlias{RegRowSel0, RegRowSel1, RegRowSel2, RegRowSel3, RegRowSel4}

// Offset returns the byte offset of alias. It panics on an alias missing from
// the map since that is a programming error.
func (m RegisterMap) Offset(alias RegAlias) uint32 {
	r, ok := m[alias]
	if !ok {
		panic(fmt.Sprintf("device: register alias %d is not mapped", alias))
	}
	return r.Offset
}

// Lookup finds the register covering the byte offset.
func (m RegisterMap) Lookup(offset uint32) (*Register, bool) {
	for _, r := range m {
		if r.Contains(offset) {
			return r, true
		}
	}
	return nil, false
}

// ByName finds a register by its hardware name.
func (m RegisterMap) ByName(name string) (*Register, bool) {
	for _, r := range m {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Sorted returns the registers ordered by offset.
func (m RegisterMap) Sorted() []*Register {
	regs := make([]*Register, 0, len(m))
	for _, r := range m {
		regs = append(regs, r)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].Offset < regs[j].Offset })
	return regs
}

// Validate checks that offsets are word aligned, unique and that no two
// entries overlap.
func (m RegisterMap) Validate() error {
	regs := m.Sorted()
	for i, r := range regs {
		if r.Offset%4 != 0 {
			return fmt.Errorf("register %s: offset 0x%x is not word aligned", r.Name, r.Offset)
		}
		if r.Words == 0 {
			return fmt.Errorf("register %s: zero length", r.Name)
		}
		if i > 0 && regs[i-1].Offset+4*regs[i-1].Words > r.Offset {
			return fmt.Errorf("register %s at 0x%x overlaps %s", r.Name, r.Offset, regs[i-1].Name)
		}
	}
	return nil
}

// Command is a named control bit.
type Command int

const (
	ContinuousDriveEnable Command = iota
	CommandLimit
)

// CommandBit locates a command flag inside a register.
type CommandBit struct {
	Reg  RegAlias
	Mask uint32
}

var CommandMap = map[Command]CommandBit{
	ContinuousDriveEnable: {Reg: RegCtrl, Mask: 0x00000001},
}

func (c Command) String() string {
	switch c {
	case ContinuousDriveEnable:
		return "ContinuousDriveEnable"
	}
	return fmt.Sprintf("Command(%d)", int(c))
}
