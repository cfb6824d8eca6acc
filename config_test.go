// Copyright 2021 by A. Ridyard, see LICENSE file for details

package nrf24

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %s", err)
	}

	mod := func(f func(*Config)) Config {
		c := DefaultConfig()
		f(&c)
		return c
	}
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"width 3", mod(func(c *Config) { c.AddressWidth = 3 }), true},
		{"width 2", mod(func(c *Config) { c.AddressWidth = 2 }), false},
		{"width 6", mod(func(c *Config) { c.AddressWidth = 6 }), false},
		{"channel 2", mod(func(c *Config) { c.Channel = 2 }), true},
		{"channel 110", mod(func(c *Config) { c.Channel = 110 }), true},
		{"channel 125", mod(func(c *Config) { c.Channel = 125 }), true},
		{"channel 1", mod(func(c *Config) { c.Channel = 1 }), false},
		{"channel 126", mod(func(c *Config) { c.Channel = 126 }), false},
		{"rate 250kbps", mod(func(c *Config) { c.DataRate = DataRate250kbps }), true},
		{"rate bogus", mod(func(c *Config) { c.DataRate = 0x28 }), false},
		{"power -18dBm", mod(func(c *Config) { c.Power = PowerMinus18dBm }), true},
		{"power bogus", mod(func(c *Config) { c.Power = 0x08 }), false},
		{"retr count 0", mod(func(c *Config) { c.RetrCount = 0 }), true},
		{"retr count 15", mod(func(c *Config) { c.RetrCount = 15 }), true},
		{"retr count 16", mod(func(c *Config) { c.RetrCount = 16 }), false},
		{"retr delay 1000us", mod(func(c *Config) { c.RetrDelay = RetrDelay1000us }), true},
		{"retr delay bogus", mod(func(c *Config) { c.RetrDelay = 0x15 }), false},
	}
	for _, c := range cases {
		err := c.cfg.Validate()
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error %s", c.name, err)
		}
		if !c.ok && !errors.Is(err, ErrInvalidParam) {
			t.Errorf("%s: err=%v, want ErrInvalidParam", c.name, err)
		}
	}
}

func TestTxPowerDBm(t *testing.T) {
	cases := []struct {
		p   TxPower
		dBm int
	}{
		{PowerMinus18dBm, -18},
		{PowerMinus12dBm, -12},
		{PowerMinus6dBm, -6},
		{Power0dBm, 0},
	}
	for _, c := range cases {
		if got := c.p.DBm(); got != c.dBm {
			t.Errorf("%#x: DBm=%d, want %d", byte(c.p), got, c.dBm)
		}
	}
}

func TestRetrDelayMicros(t *testing.T) {
	cases := []struct {
		d  RetrDelay
		us int
	}{
		{RetrDelay250us, 250},
		{RetrDelay500us, 500},
		{RetrDelay750us, 750},
		{RetrDelay1000us, 1000},
	}
	for _, c := range cases {
		if got := c.d.Micros(); got != c.us {
			t.Errorf("%#x: Micros=%d, want %d", byte(c.d), got, c.us)
		}
	}
}
