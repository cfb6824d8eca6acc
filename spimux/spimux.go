// Copyright 2021 by A. Ridyard, see LICENSE file for details

// Package spimux shares one SPI port between two nRF24L01+ radios
// whose chip selects are demultiplexed behind a single CS line.
//
// A gateway often carries two radios, one parked in receive mode and
// one used for transmission, so neither role has to wait for the
// other's mode changeover. Boards with a single CS per SPI port can
// still do this with a 1-of-2 demux (e.g. a 74LVC1G19) on the CS line:
// the port's CS drives the demux enable, a spare GPIO drives the
// select input, and the demux outputs feed the two radios' CSN pins. A
// pull-down on the select input keeps both CSN lines inactive while
// the port's CS is idle.
//
// Conn routes each transaction by setting the select pin before the
// bus transfer; a shared mutex keeps the two radios' transactions from
// interleaving, which matters because the radio's response protocol is
// stateful within a CSN assertion. Both radios necessarily share the
// port's clock speed and SPI mode, which suits the nRF24L01+: both
// sides run mode 0 at 10MHz or less.
package spimux

import (
	"sync"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/spi"
)

// Conn is one radio's view of the shared port. It implements
// conn.Conn and can be handed straight to nrf24.New.
type Conn struct {
	mu       *sync.Mutex // serializes transactions across both radios
	spi.Conn             // underlying port with the demuxed chip select
	selPin   gpio.PinOut // demux select input
	sel      gpio.Level  // select level that routes CS to this radio
}

// New splits an SPI connection into two radio connections: the first
// owns the select pin's low level, the second the high level.
func New(port spi.Conn, selPin gpio.PinOut) (*Conn, *Conn) {
	mu := &sync.Mutex{}
	return &Conn{mu, port, selPin, gpio.Low},
		&Conn{mu, port, selPin, gpio.High}
}

// Tx routes the chip select to this radio and runs the transaction.
func (c *Conn) Tx(w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.selPin.Out(c.sel); err != nil {
		return err
	}
	return c.Conn.Tx(w, r)
}
