// Copyright 2021 by A. Ridyard, see LICENSE file for details

package spibus

import (
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

// Opts selects the SPI port and CE pin for the periph backend.
type Opts struct {
	// Port is a spireg port name, e.g. "SPI0.0" or "/dev/spidev0.0".
	// Empty selects the platform default port.
	Port string
	// CE is a gpioreg pin name, e.g. "GPIO22".
	CE string
	// Speed is the SPI clock frequency, 0 means 10MHz (the chip's
	// maximum).
	Speed physic.Frequency
}

// Bus is an opened periph SPI link plus the CE pin, ready to hand to
// nrf24.New.
type Bus struct {
	Conn spi.Conn
	CE   gpio.PinOut
	port spi.PortCloser
}

// Open initialises the periph host drivers, opens the SPI port in mode
// 0 and looks up the CE pin. The chip select line is the port's own
// CS, driven by the kernel around each transaction.
func Open(o Opts) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("spibus: host init: %v", err)
	}
	port, err := spireg.Open(o.Port)
	if err != nil {
		return nil, fmt.Errorf("spibus: open %q: %v", o.Port, err)
	}
	speed := o.Speed
	if speed == 0 {
		speed = 10 * physic.MegaHertz
	}
	c, err := port.Connect(speed, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("spibus: connect: %v", err)
	}
	ce := gpioreg.ByName(o.CE)
	if ce == nil {
		port.Close()
		return nil, fmt.Errorf("spibus: no pin named %q", o.CE)
	}
	if err := ce.Out(gpio.Low); err != nil {
		port.Close()
		return nil, fmt.Errorf("spibus: ce %q: %v", o.CE, err)
	}
	return &Bus{Conn: c, CE: ce, port: port}, nil
}

// Close releases the SPI port. The CE pin is left low.
func (b *Bus) Close() error {
	if err := b.CE.Out(gpio.Low); err != nil {
		return err
	}
	return b.port.Close()
}
