// Copyright 2021 by A. Ridyard, see LICENSE file for details

// Package spibus provides the bus plumbing underneath the nrf24
// driver: validation of an RP2040 GPIO pin assignment against the
// chip's two hardware SPI instances, and backends that hand the driver
// a connected SPI link plus a CE output pin. The periph backend is the
// default; an embd backend exists for platforms where periph lacks a
// host driver.
package spibus

import (
	"fmt"

	"github.com/andyrids/pico-nrf24"
)

// Instance identifies one of the RP2040's hardware SPI controllers.
type Instance int

const (
	SPI0 Instance = iota
	SPI1
	instanceErr
)

func (i Instance) String() string {
	switch i {
	case SPI0:
		return "spi0"
	case SPI1:
		return "spi1"
	}
	return "spi?"
}

// Pins is an RP2040 GPIO assignment for one radio. CIPO, COPI and SCK
// must be muxable to the same SPI instance; CSN and CE are plain GPIO
// outputs and may be any pin.
type Pins struct {
	CIPO uint8 // controller in, peripheral out (MISO)
	COPI uint8 // controller out, peripheral in (MOSI)
	SCK  uint8 // serial clock
	CSN  uint8 // chip select, active low
	CE   uint8 // chip enable (TX/RX engage), not an SPI function
}

// The RP2040 muxes each SPI function onto every 4th GPIO, alternating
// between the two controllers in pairs: pins 0..7 belong to SPI0,
// 8..15 to SPI1, 16..23 to SPI0 again, 24..29 to SPI1.
func pinInstance(pin, first, last uint8) (Instance, bool) {
	if pin < first || pin > last || (pin-first)%4 != 0 {
		return instanceErr, false
	}
	return Instance(pin / 8 % 2), true
}

func cipoInstance(pin uint8) (Instance, bool) { return pinInstance(pin, 0, 28) }
func copiInstance(pin uint8) (Instance, bool) { return pinInstance(pin, 3, 27) }
func sckInstance(pin uint8) (Instance, bool)  { return pinInstance(pin, 2, 26) }

const maxGPIO = 29

// Validate checks each SPI-function pin individually and then that all
// three resolve to the same controller. The returned Instance is the
// controller the assignment selects.
func (p Pins) Validate() (Instance, error) {
	cipo, ok := cipoInstance(p.CIPO)
	if !ok {
		return instanceErr, fmt.Errorf("%w: GP%d is not a CIPO pin",
			nrf24.ErrInvalidParam, p.CIPO)
	}
	copi, ok := copiInstance(p.COPI)
	if !ok {
		return instanceErr, fmt.Errorf("%w: GP%d is not a COPI pin",
			nrf24.ErrInvalidParam, p.COPI)
	}
	sck, ok := sckInstance(p.SCK)
	if !ok {
		return instanceErr, fmt.Errorf("%w: GP%d is not an SCK pin",
			nrf24.ErrInvalidParam, p.SCK)
	}
	if cipo != copi || copi != sck {
		return instanceErr, fmt.Errorf(
			"%w: pins span SPI instances: CIPO GP%d is %s, COPI GP%d is %s, SCK GP%d is %s",
			nrf24.ErrInvalidParam, p.CIPO, cipo, p.COPI, copi, p.SCK, sck)
	}
	if p.CSN > maxGPIO {
		return instanceErr, fmt.Errorf("%w: CSN GP%d out of range",
			nrf24.ErrInvalidParam, p.CSN)
	}
	if p.CE > maxGPIO {
		return instanceErr, fmt.Errorf("%w: CE GP%d out of range",
			nrf24.ErrInvalidParam, p.CE)
	}
	return cipo, nil
}
