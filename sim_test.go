// Copyright 2021 by A. Ridyard, see LICENSE file for details

package nrf24

// This file holds the test fixtures: a register-level simulation of the
// chip behind the conn.Conn interface, a CE pin that records its level
// transitions, and a sleep recorder standing in for time.Sleep. No
// hardware or timers are involved, the driver's full SPI transaction
// stream runs against the simulation.

import (
	"fmt"
	"testing"
	"time"

	"periph.io/x/periph/conn"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

// regWrite is one W_REGISTER transaction as seen on the wire, after
// the opcode byte.
type regWrite struct {
	reg  byte
	data []byte
}

// chipSim emulates the nRF24L01+ SPI slave: a register file with the
// datasheet reset values, the RX/TX FIFOs, write-1-to-clear STATUS
// semantics and a scriptable transmit outcome.
type chipSim struct {
	t    *testing.T
	regs [REG_FEATURE + 1]byte

	// multi-byte address registers
	rxAddrP0 []byte
	rxAddrP1 []byte
	txAddr   []byte

	// FIFOs
	rxPayloads [][]byte
	rxPipes    []uint8
	txPayloads [][]byte

	// transmit script: status bits asserted after a payload write,
	// once txPolls status reads have gone by.
	txOutcome Status
	txPolls   int
	txArmed   bool

	// fault injection
	widthOverride int // R_RX_PL_WID response, -1 means actual width
	failNext      error

	writes       []regWrite
	flushRxCount int
	flushTxCount int
}

func newChipSim(t *testing.T) *chipSim {
	s := &chipSim{t: t, widthOverride: -1}
	// Datasheet reset values.
	s.regs[REG_CONFIG] = 0x08
	s.regs[REG_EN_AA] = 0x3F
	s.regs[REG_EN_RXADDR] = 0x03
	s.regs[REG_SETUP_AW] = 0x03
	s.regs[REG_SETUP_RETR] = 0x03
	s.regs[REG_RF_CH] = 0x02
	s.regs[REG_RF_SETUP] = 0x0E
	s.regs[REG_STATUS] = 0x0E // RX_P_NO=7, FIFO empty
	s.regs[REG_FIFO_STATUS] = 0x11
	s.rxAddrP0 = []byte{0xE7, 0xE7, 0xE7, 0xE7, 0xE7}
	s.rxAddrP1 = []byte{0xC2, 0xC2, 0xC2, 0xC2, 0xC2}
	s.regs[REG_RX_ADDR_P2] = 0xC3
	s.regs[REG_RX_ADDR_P3] = 0xC4
	s.regs[REG_RX_ADDR_P4] = 0xC5
	s.regs[REG_RX_ADDR_P5] = 0xC6
	s.txAddr = []byte{0xE7, 0xE7, 0xE7, 0xE7, 0xE7}
	return s
}

func (s *chipSim) String() string { return "chipSim" }

func (s *chipSim) Duplex() conn.Duplex { return conn.Full }

// injectRx queues a received payload on a pipe and raises RX_DR, as the
// radio does when a packet passes CRC.
func (s *chipSim) injectRx(pipe uint8, payload []byte) {
	s.rxPayloads = append(s.rxPayloads, append([]byte(nil), payload...))
	s.rxPipes = append(s.rxPipes, pipe)
	s.regs[REG_STATUS] |= byte(statRxDR)
	s.refreshPipeNo()
}

// scriptTx arms the transmit outcome: the given status bits assert
// after polls status reads following the next payload write.
func (s *chipSim) scriptTx(outcome Status, polls int) {
	s.txOutcome = outcome
	s.txPolls = polls
}

// refreshPipeNo mirrors the top RX FIFO entry's pipe into the RX_P_NO
// field of STATUS, 7 when the FIFO is empty.
func (s *chipSim) refreshPipeNo() {
	n := byte(7)
	if len(s.rxPipes) > 0 {
		n = s.rxPipes[0]
	}
	s.regs[REG_STATUS] = s.regs[REG_STATUS]&^0x0E | n<<1
}

// onStatusRead advances the armed transmit script.
func (s *chipSim) onStatusRead() {
	if !s.txArmed {
		return
	}
	if s.txPolls <= 0 {
		s.regs[REG_STATUS] |= byte(s.txOutcome)
		s.txArmed = false
		return
	}
	s.txPolls--
}

func (s *chipSim) lastWrite(reg byte) (regWrite, bool) {
	for i := len(s.writes) - 1; i >= 0; i-- {
		if s.writes[i].reg == reg {
			return s.writes[i], true
		}
	}
	return regWrite{}, false
}

// Tx implements conn.Conn, decoding one CSN-bracketed transaction.
func (s *chipSim) Tx(w, r []byte) error {
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	if len(w) != len(r) {
		return fmt.Errorf("chipSim: w/r length mismatch %d/%d", len(w), len(r))
	}
	if len(w) == 0 {
		return fmt.Errorf("chipSim: empty transaction")
	}
	r[0] = s.regs[REG_STATUS]
	op := w[0]
	switch {
	case op == NOP:
		// The script advances first so a poll that lands on the final
		// interval observes the outcome in this very response.
		s.onStatusRead()
		r[0] = s.regs[REG_STATUS]
	case op&0xE0 == R_REGISTER:
		s.readRegister(op&REGISTER_MASK, w, r)
	case op&0xE0 == W_REGISTER:
		s.writeRegister(op&REGISTER_MASK, w[1:])
	case op == R_RX_PL_WID:
		if len(r) < 2 {
			return fmt.Errorf("chipSim: short R_RX_PL_WID")
		}
		switch {
		case s.widthOverride >= 0:
			r[1] = byte(s.widthOverride)
		case len(s.rxPayloads) > 0:
			r[1] = byte(len(s.rxPayloads[0]))
		default:
			r[1] = 0
		}
	case op == R_RX_PAYLOAD:
		if len(s.rxPayloads) == 0 {
			return nil // reads shift out undefined data, leave zeros
		}
		copy(r[1:], s.rxPayloads[0])
		s.rxPayloads = s.rxPayloads[1:]
		s.rxPipes = s.rxPipes[1:]
		s.refreshPipeNo()
	case op == W_TX_PAYLOAD:
		s.txPayloads = append(s.txPayloads, append([]byte(nil), w[1:]...))
		if s.txOutcome != 0 {
			s.txArmed = true
			if s.txPolls <= 0 {
				s.regs[REG_STATUS] |= byte(s.txOutcome)
				s.txArmed = false
			}
		}
	case op == FLUSH_TX:
		s.txPayloads = nil
		s.flushTxCount++
	case op == FLUSH_RX:
		s.rxPayloads = nil
		s.rxPipes = nil
		s.flushRxCount++
		s.refreshPipeNo()
	default:
		return fmt.Errorf("chipSim: unexpected opcode %#x", op)
	}
	return nil
}

func (s *chipSim) readRegister(reg byte, w, r []byte) {
	var src []byte
	switch reg {
	case REG_RX_ADDR_P0:
		src = s.rxAddrP0
	case REG_RX_ADDR_P1:
		src = s.rxAddrP1
	case REG_TX_ADDR:
		src = s.txAddr
	default:
		src = s.regs[reg : reg+1]
	}
	for i := 1; i < len(r); i++ {
		if i-1 < len(src) {
			r[i] = src[i-1]
		}
	}
}

func (s *chipSim) writeRegister(reg byte, data []byte) {
	s.writes = append(s.writes, regWrite{reg, append([]byte(nil), data...)})
	switch reg {
	case REG_STATUS:
		// Interrupt bits are write-1-to-clear, the rest read-only.
		if len(data) > 0 {
			s.regs[REG_STATUS] &^= data[0] & byte(statIRQMask)
		}
	case REG_RX_ADDR_P0:
		s.rxAddrP0 = append([]byte(nil), data...)
	case REG_RX_ADDR_P1:
		s.rxAddrP1 = append([]byte(nil), data...)
	case REG_TX_ADDR:
		s.txAddr = append([]byte(nil), data...)
	default:
		if len(data) > 0 {
			s.regs[reg] = data[0]
		}
	}
}

// cePin is a gpio.PinOut that records every level it is driven to.
type cePin struct {
	levels []gpio.Level
	fail   error
}

func (p *cePin) String() string   { return "CE" }
func (p *cePin) Name() string     { return "CE" }
func (p *cePin) Number() int      { return 22 }
func (p *cePin) Function() string { return "Out" }
func (p *cePin) Halt() error      { return nil }

func (p *cePin) Out(l gpio.Level) error {
	if p.fail != nil {
		return p.fail
	}
	p.levels = append(p.levels, l)
	return nil
}

func (p *cePin) PWM(gpio.Duty, physic.Frequency) error {
	return fmt.Errorf("cePin: PWM not supported")
}

func (p *cePin) level() gpio.Level {
	if len(p.levels) == 0 {
		return gpio.Low
	}
	return p.levels[len(p.levels)-1]
}

// sleepRec records the durations the driver asked to sleep for.
type sleepRec struct {
	slept []time.Duration
}

func (s *sleepRec) sleep(d time.Duration) { s.slept = append(s.slept, d) }

func (s *sleepRec) count(d time.Duration) int {
	n := 0
	for _, v := range s.slept {
		if v == d {
			n++
		}
	}
	return n
}

// newTestRadio initialises a Radio against a fresh simulation. A zero
// cfg selects DefaultConfig, like New itself.
func newTestRadio(t *testing.T, cfg Config) (*Radio, *chipSim, *cePin, *sleepRec) {
	t.Helper()
	sim := newChipSim(t)
	ce := &cePin{}
	sl := &sleepRec{}
	r, err := New(sim, ce, RadioOpts{Config: cfg, Logger: t.Logf, Sleep: sl.sleep})
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	return r, sim, ce, sl
}
