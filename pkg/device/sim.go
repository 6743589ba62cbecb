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
	"fmt"
	"sync"
)

const (
	BackendMmap = "mmap"
	BackendSim  = "sim"
)

// SimOp is one raw access recorded by Sim.
type SimOp struct {
	Write  bool
	Offset uint32
	Value  uint32
}

// Sim is an in-memory register file standing in for the FPGA. A write to
// bank_sel_hps raises conifer_isr which then reads non-zero ISRLatency more
// times before the simulated core clears it.
type Sim struct {
	mu          sync.Mutex
	mem         []uint32
	ops         []SimOp
	closed      bool
	pending     int
	readFaults  map[uint32]error
	writeFaults map[uint32]error

	ISRLatency int
	ISRStuck   bool
	CloseErr   error
}

func NewSim() *Sim {
	return &Sim{
		mem:         make([]uint32, WindowSize/4),
		readFaults:  map[uint32]error{},
		writeFaults: map[uint32]error{},
	}
}

// Opener returns an Opener handing out this Sim. Reopening a closed Sim keeps
// its register contents.
func (s *Sim) Opener() Opener {
	return func(path string) (RegisterFile, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = false
		return s, nil
	}
}

func (s *Sim) index(offset uint32) (int, error) {
	if s.closed {
		return 0, errors.New("simulated register window is closed")
	}
	if offset%4 != 0 || int(offset)+4 > WindowSize {
		return 0, fmt.Errorf("offset 0x%x outside register window", offset)
	}
	return int(offset / 4), nil
}

func (s *Sim) ReadU32(offset uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.index(offset)
	if err != nil {
		return 0, err
	}
	if err := s.readFaults[offset]; err != nil {
		return 0, err
	}
	if offset == RegMap.Offset(RegConiferISR) {
		switch {
		case s.ISRStuck:
			s.mem[i] = 1
		case s.pending > 0:
			s.pending--
		default:
			s.mem[i] = 0
		}
	}
	s.ops = append(s.ops, SimOp{Offset: offset, Value: s.mem[i]})
	return s.mem[i], nil
}

func (s *Sim) WriteU32(offset uint32, value uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.index(offset)
	if err != nil {
		return err
	}
	if err := s.writeFaults[offset]; err != nil {
		return err
	}
	s.ops = append(s.ops, SimOp{Write: true, Offset: offset, Value: value})
	s.mem[i] = value
	switch offset {
	case RegMap.Offset(RegBankSelHPS):
		s.mem[RegMap.Offset(RegConiferISR)/4] = 1
		s.pending = s.ISRLatency
	case RegMap.Offset(RegConiferISR):
		if value == 0 {
			s.pending = 0
		}
	}
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.CloseErr
}

func (s *Sim) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Peek reads a word without side effects or recording.
func (s *Sim) Peek(offset uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem[offset/4]
}

// Poke stores a word without side effects or recording.
func (s *Sim) Poke(offset uint32, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem[offset/4] = value
}

// Snapshot returns a copy of the whole window.
func (s *Sim) Snapshot() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	mem := make([]uint32, len(s.mem))
	copy(mem, s.mem)
	return mem
}

// Ops returns a copy of the recorded accesses.
func (s *Sim) Ops() []SimOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]SimOp, len(s.ops))
	copy(ops, s.ops)
	return ops
}

// Writes returns the recorded writes only.
func (s *Sim) Writes() []SimOp {
	var writes []SimOp
	for _, op := range s.Ops() {
		if op.Write {
			writes = append(writes, op)
		}
	}
	return writes
}

func (s *Sim) ResetOps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
}

// FailRead makes every read at offset return err. A nil err clears the fault.
func (s *Sim) FailRead(offset uint32, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readFaults[offset] = err
}

// FailWrite makes every write at offset return err. A nil err clears the fault.
func (s *Sim) FailWrite(offset uint32, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeFaults[offset] = err
}
