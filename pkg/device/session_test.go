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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type memJournal struct {
	entries [][2]uint32
}

func (j *memJournal) Record(offset, value uint32) error {
	j.entries = append(j.entries, [2]uint32{offset, value})
	return nil
}

func openSim(t *testing.T, opts ...Option) (*Session, *Sim) {
	t.Helper()
	sim := NewSim()
	s, err := Open("/dev/sim", sim.Opener(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return s, sim
}

func TestRegMapValid(t *testing.T) {
	if err := RegMap.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(RegMap) != int(RegAliasLimit) {
		t.Errorf("expected %d registers, got %d", RegAliasLimit, len(RegMap))
	}
	for alias, reg := range RegMap {
		if reg.Alias != alias {
			t.Errorf("register %s carries alias %d, keyed by %d", reg.Name, reg.Alias, alias)
		}
	}
}

func TestValidateOverlap(t *testing.T) {
	m := RegisterMap{
		RegCtrl:        reg32(RegCtrl, "a", 0, ReadWrite),
		RegPatternRAM:  {Alias: RegPatternRAM, Name: "ram", Offset: 4, Words: 2, Access: ReadWrite},
		RegStxClkMatch: reg32(RegStxClkMatch, "b", 8, ReadWrite),
	}
	if err := m.Validate(); err == nil {
		t.Errorf("expected overlap to be rejected")
	}
}

func TestLookup(t *testing.T) {
	cases := []struct {
		offset uint32
		name   string
		ok     bool
	}{
		{0, "ctrl_reg", true},
		{24, "version", true},
		{64, "wait_for_data_valid_match_val", true},
		{68, "", false},
		{PatternRAMOffset, "pattern_ram", true},
		{PatternRAMOffset + 4*123, "pattern_ram", true},
		{PatternRAMOffset + PatternRAMSize - 4, "pattern_ram", true},
		{PatternRAMOffset + PatternRAMSize, "", false},
	}
	for _, c := range cases {
		reg, ok := RegMap.Lookup(c.offset)
		if ok != c.ok {
			t.Errorf("Lookup(0x%x): ok=%v, want %v", c.offset, ok, c.ok)
			continue
		}
		if ok && reg.Name != c.name {
			t.Errorf("Lookup(0x%x) = %s, want %s", c.offset, reg.Name, c.name)
		}
	}
	if reg, ok := RegMap.ByName("bank_sel_hps"); !ok || reg.Offset != 36 {
		t.Errorf("ByName(bank_sel_hps) = %+v, %v", reg, ok)
	}
}

func TestSessionReadWrite(t *testing.T) {
	j := &memJournal{}
	s, sim := openSim(t, WithJournal(j))
	defer s.Close()

	if err := s.WriteReg(RegGateDly, 119); err != nil {
		t.Fatal(err)
	}
	value, err := s.ReadReg(RegGateDly)
	if err != nil {
		t.Fatal(err)
	}
	if value != 119 {
		t.Errorf("expected 119, got %d", value)
	}
	if err := s.Write(PatternRAMOffset+8, 0xdeadbeef); err != nil {
		t.Fatal(err)
	}
	if sim.Peek(PatternRAMOffset+8) != 0xdeadbeef {
		t.Errorf("pattern word not stored")
	}
	want := [][2]uint32{{12, 119}, {PatternRAMOffset + 8, 0xdeadbeef}}
	if diff := cmp.Diff(want, j.entries); diff != "" {
		t.Errorf("journal mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionAccessErrors(t *testing.T) {
	s, sim := openSim(t)

	var accessErr ErrAccess
	if err := s.WriteReg(RegVersion, 1); !errors.As(err, &accessErr) {
		t.Errorf("write to read only register: expected ErrAccess, got %v", err)
	}
	if _, err := s.Read(68); !errors.As(err, &accessErr) {
		t.Errorf("read of unmapped offset: expected ErrAccess, got %v", err)
	}
	if err := s.Write(2, 1); !errors.As(err, &accessErr) {
		t.Errorf("unaligned write: expected ErrAccess, got %v", err)
	}
	if len(sim.Writes()) != 0 {
		t.Errorf("rejected writes reached the register file: %+v", sim.Writes())
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if _, err := s.ReadReg(RegCtrl); !errors.As(err, &accessErr) {
		t.Errorf("read after close: expected ErrAccess, got %v", err)
	}
}

func TestSessionWriteOnly(t *testing.T) {
	regs := RegisterMap{
		RegCtrl: reg32(RegCtrl, "ctrl_reg", 0, WriteOnly),
	}
	sim := NewSim()
	s, err := Open("/dev/sim", sim.Opener(), WithRegisterMap(regs))
	if err != nil {
		t.Fatal(err)
	}
	var accessErr ErrAccess
	if _, err := s.Read(0); !errors.As(err, &accessErr) {
		t.Errorf("read of write only register: expected ErrAccess, got %v", err)
	}
	if err := s.Write(0, 1); err != nil {
		t.Errorf("write of write only register: %v", err)
	}
}

func TestSessionFaults(t *testing.T) {
	s, sim := openSim(t)
	defer s.Close()
	boom := errors.New("bus error")

	sim.FailWrite(RegMap.Offset(RegSckMatch), boom)
	var writeErr ErrWrite
	if err := s.WriteReg(RegSckMatch, 1); !errors.As(err, &writeErr) || !errors.Is(err, boom) {
		t.Errorf("expected ErrWrite wrapping bus error, got %v", err)
	}
	sim.FailRead(RegMap.Offset(RegSckMatch), boom)
	var readErr ErrRead
	if _, err := s.ReadReg(RegSckMatch); !errors.As(err, &readErr) {
		t.Errorf("expected ErrRead, got %v", err)
	}
}

func TestOpenFailure(t *testing.T) {
	boom := errors.New("no such device")
	_, err := Open("/dev/missing", func(string) (RegisterFile, error) { return nil, boom })
	var mapErr ErrMap
	if !errors.As(err, &mapErr) || !errors.Is(err, boom) {
		t.Errorf("expected ErrMap wrapping cause, got %v", err)
	}
}

func TestSetCommand(t *testing.T) {
	s, sim := openSim(t)
	defer s.Close()
	sim.Poke(RegMap.Offset(RegCtrl), 0xf0)

	if err := s.SetCommand(ContinuousDriveEnable, true); err != nil {
		t.Fatal(err)
	}
	if got := sim.Peek(0); got != 0xf1 {
		t.Errorf("expected 0xf1, got 0x%x", got)
	}
	on, err := s.Command(ContinuousDriveEnable)
	if err != nil || !on {
		t.Errorf("Command() = %v, %v", on, err)
	}
	if err := s.SetCommand(ContinuousDriveEnable, false); err != nil {
		t.Fatal(err)
	}
	if got := sim.Peek(0); got != 0xf0 {
		t.Errorf("expected 0xf0, got 0x%x", got)
	}
}

func TestSimISR(t *testing.T) {
	sim := NewSim()
	sim.ISRLatency = 2
	isr := RegMap.Offset(RegConiferISR)
	if err := sim.WriteU32(RegMap.Offset(RegBankSelHPS), 1); err != nil {
		t.Fatal(err)
	}
	var got []uint32
	for i := 0; i < 4; i++ {
		v, err := sim.ReadU32(isr)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
	}
	if diff := cmp.Diff([]uint32{1, 1, 0, 0}, got); diff != "" {
		t.Errorf("isr sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionRoundTripEveryRegister(t *testing.T) {
	j := &memJournal{}
	s, sim := openSim(t, WithJournal(j))
	defer s.Close()

	var written [][2]uint32
	for _, reg := range RegMap.Sorted() {
		offsets := []uint32{reg.Offset}
		if reg.Words > 1 {
			offsets = append(offsets, reg.Offset+4*(reg.Words-1))
		}
		for _, offset := range offsets {
			value := 0xa5000000 | offset
			if reg.Access.CanWrite() {
				if err := s.Write(offset, value); err != nil {
					t.Errorf("write %s at 0x%x: %v", reg.Name, offset, err)
					continue
				}
				written = append(written, [2]uint32{offset, value})
				if got := sim.Peek(offset); got != value {
					t.Errorf("%s at 0x%x holds 0x%x, want 0x%x", reg.Name, offset, got, value)
				}
			} else {
				sim.Poke(offset, value)
			}
			// the interrupt register is cleared by the hardware on read
			if !reg.Access.CanRead() || reg.Alias == RegConiferISR {
				continue
			}
			got, err := s.Read(offset)
			if err != nil {
				t.Errorf("read %s at 0x%x: %v", reg.Name, offset, err)
				continue
			}
			if got != value {
				t.Errorf("read %s at 0x%x = 0x%x, want 0x%x", reg.Name, offset, got, value)
			}
		}
	}
	if diff := cmp.Diff(written, j.entries); diff != "" {
		t.Errorf("journal mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionRejectsUnmappedOffsets(t *testing.T) {
	s, sim := openSim(t)
	defer s.Close()

	var offsets []uint32
	for offset := uint32(68); offset < PatternRAMOffset; offset += 4 {
		offsets = append(offsets, offset)
	}
	offsets = append(offsets, WindowSize, WindowSize+4, 2*WindowSize, 0xfffffffc)
	for _, reg := range RegMap.Sorted() {
		offsets = append(offsets, reg.Offset+1, reg.Offset+2, reg.Offset+3)
	}

	var accessErr ErrAccess
	for _, offset := range offsets {
		if _, err := s.Read(offset); !errors.As(err, &accessErr) {
			t.Errorf("read at 0x%x: expected ErrAccess, got %v", offset, err)
		}
		if err := s.Write(offset, 1); !errors.As(err, &accessErr) {
			t.Errorf("write at 0x%x: expected ErrAccess, got %v", offset, err)
		}
	}
	if ops := sim.Ops(); len(ops) != 0 {
		t.Errorf("%d rejected accesses reached the register file", len(ops))
	}
}
