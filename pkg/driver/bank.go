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

	"github.com/cenkalti/backoff"

	"kymeta.com/kdk/go-rcdriver/pkg/device"
	"kymeta.com/kdk/go-rcdriver/pkg/log"
)

const (
	BankSize  = device.PatternRAMSize / 2
	BankWords = BankSize / 4
)

type Bank int

const (
	BankA Bank = iota
	BankB
)

func (b Bank) Other() Bank {
	if b == BankA {
		return BankB
	}
	return BankA
}

// Offset is the byte offset of the first word of the bank.
func (b Bank) Offset() uint32 {
	return device.PatternRAMOffset + uint32(b)*BankSize
}

func (b Bank) String() string {
	switch b {
	case BankA:
		return "A"
	case BankB:
		return "B"
	}
	return fmt.Sprintf("Bank(%d)", int(b))
}

func ParseBank(s string) (Bank, error) {
	switch s {
	case "A", "a":
		return BankA, nil
	case "B", "b":
		return BankB, nil
	}
	return 0, fmt.Errorf("unknown bank %q", s)
}

type Phase int

const (
	Idle Phase = iota
	WaitingForCompletion
)

func (p Phase) String() string {
	if p == WaitingForCompletion {
		return "waiting-for-completion"
	}
	return "idle"
}

var errISRPending = errors.New("conifer_isr pending")

// logicalNot flips a bank select register value.
func logicalNot(v uint32) uint32 {
	if v != 0 {
		return 0
	}
	return 1
}

// BankSelector tracks which pattern RAM bank the core drives and performs the
// hps / conifer swap handshake.
type BankSelector struct {
	interval time.Duration
	timeout  time.Duration
	phase    Phase
	active   Bank
	known    bool
}

func NewBankSelector(interval, timeout time.Duration) *BankSelector {
	return &BankSelector{
		interval: interval,
		timeout:  timeout,
	}
}

// Establish reads the active bank from bank_sel_conifer.
func (b *BankSelector) Establish(s *device.Session) error {
	value, err := s.ReadReg(device.RegBankSelConifer)
	if err != nil {
		return err
	}
	b.active = Bank(value & 0x1)
	b.known = true
	log.Info("Active bank %s, standby bank %s", b.active, b.active.Other())
	return nil
}

func (b *BankSelector) Active() (Bank, bool) {
	return b.active, b.known
}

func (b *BankSelector) Standby() (Bank, bool) {
	return b.active.Other(), b.known
}

func (b *BankSelector) Phase() Phase {
	return b.phase
}

// Toggle makes the standby bank active. The hps select is flipped first, then
// conifer_isr is polled until it clears and finally the conifer select is
// flipped. The bank state only advances when every step succeeds.
func (b *BankSelector) Toggle(ctx context.Context, s *device.Session) error {
	if !b.known {
		return ErrNoBank{}
	}
	if b.phase == WaitingForCompletion {
		return ErrBusy{}
	}

	hps, err := s.ReadReg(device.RegBankSelHPS)
	if err != nil {
		return err
	}
	if err := s.WriteReg(device.RegBankSelHPS, logicalNot(hps)); err != nil {
		return err
	}

	b.phase = WaitingForCompletion
	defer func() { b.phase = Idle }()

	if err := b.waitForCompletion(ctx, s); err != nil {
		b.restore(s, hps)
		return err
	}

	conifer, err := s.ReadReg(device.RegBankSelConifer)
	if err != nil {
		b.restore(s, hps)
		return err
	}
	if err := s.WriteReg(device.RegBankSelConifer, logicalNot(conifer)); err != nil {
		b.restore(s, hps)
		return err
	}

	b.active = b.active.Other()
	log.Info("Bank %s active", b.active)
	return nil
}

func (b *BankSelector) waitForCompletion(ctx context.Context, s *device.Session) error {
	waitCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	polls := 0
	operation := func() error {
		polls++
		value, err := s.ReadReg(device.RegConiferISR)
		if err != nil {
			return backoff.Permanent(err)
		}
		if value != 0 {
			return errISRPending
		}
		return nil
	}
	err := backoff.Retry(operation, backoff.WithContext(backoff.NewConstantBackOff(b.interval), waitCtx))
	if err == nil {
		log.Debug("conifer_isr cleared after %d polls", polls)
		return nil
	}
	if !errors.Is(err, errISRPending) {
		return err
	}
	if ctx.Err() != nil {
		return fmt.Errorf("waiting for conifer_isr: %w", ctx.Err())
	}
	return ErrTimeout{After: b.timeout}
}

func (b *BankSelector) restore(s *device.Session, hps uint32) {
	if err := s.WriteReg(device.RegBankSelHPS, hps); err != nil {
		log.Warning("Failed to restore bank_sel_hps: %s", err)
	}
}
