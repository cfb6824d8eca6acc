// Copyright 2021 by A. Ridyard, see LICENSE file for details

package nrf24

import "testing"

func TestStatusRxPipe(t *testing.T) {
	cases := []struct {
		status Status
		pipe   int
	}{
		{0x0E, -1}, // RX_P_NO=7, FIFO empty
		{0x0C, -1}, // RX_P_NO=6, reserved
		{0x00, 0},
		{0x02, 1},
		{0x0A, 5},
		{0x42, 1}, // RX_DR set alongside
	}
	for _, c := range cases {
		if got := c.status.RxPipe(); got != c.pipe {
			t.Errorf("status %#x: RxPipe=%d, want %d", byte(c.status), got, c.pipe)
		}
	}
}

func TestStatusBits(t *testing.T) {
	s := Status(0x71)
	if !s.RxReady() || !s.DataSent() || !s.MaxRetries() || !s.TxFull() {
		t.Errorf("status %#x: bits not all detected", byte(s))
	}
	s = Status(0x0E)
	if s.RxReady() || s.DataSent() || s.MaxRetries() || s.TxFull() {
		t.Errorf("status %#x: spurious bits detected", byte(s))
	}
}

func TestConfigRegBits(t *testing.T) {
	c := ConfigReg(0x0E) // EN_CRC|CRCO|PWR_UP
	if c.PrimRx() {
		t.Errorf("PRIM_RX detected in %#x", byte(c))
	}
	if !c.PowerUp() {
		t.Errorf("PWR_UP not detected in %#x", byte(c))
	}
	if got := c.WithPrimRx(true); byte(got) != 0x0F {
		t.Errorf("WithPrimRx(true)=%#x, want 0x0f", byte(got))
	}
	if got := c.WithPrimRx(true).WithPrimRx(false); got != c {
		t.Errorf("WithPrimRx round trip changed %#x to %#x", byte(c), byte(got))
	}
	if got := c.WithPowerUp(false); byte(got) != 0x0C {
		t.Errorf("WithPowerUp(false)=%#x, want 0x0c", byte(got))
	}
}

func TestPipeMask(t *testing.T) {
	var m PipeMask
	for p := uint8(0); p <= 5; p++ {
		m = m.With(p)
	}
	if m != PipeMaskAll {
		t.Errorf("all pipes set gives %#x, want %#x", byte(m), byte(PipeMaskAll))
	}
	if PipeMask(0x02).Has(0) || !PipeMask(0x02).Has(1) {
		t.Errorf("Has decodes wrong bit")
	}
}

func TestFifoStatusBits(t *testing.T) {
	f := FifoStatus(0x11) // reset value: both FIFOs empty
	if !f.RxEmpty() || !f.TxEmpty() {
		t.Errorf("fifo %#x: empty flags not detected", byte(f))
	}
	if f.RxFull() || f.TxFull() {
		t.Errorf("fifo %#x: spurious full flags", byte(f))
	}
}

func TestRegisterHelpers(t *testing.T) {
	if rxAddrReg(0) != REG_RX_ADDR_P0 || rxAddrReg(5) != REG_RX_ADDR_P5 {
		t.Errorf("rxAddrReg broken")
	}
	if rxWidthReg(0) != REG_RX_PW_P0 || rxWidthReg(5) != REG_RX_PW_P5 {
		t.Errorf("rxWidthReg broken")
	}
}
