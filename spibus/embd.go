// Copyright 2021 by A. Ridyard, see LICENSE file for details

package spibus

// Shim over embd so the driver can run on platforms where periph has
// no host support. The embd bus and pin are wrapped to present the
// periph conn.Conn and gpio.PinOut interfaces the driver consumes.

import (
	"fmt"

	"github.com/kidoman/embd"
	periphconn "periph.io/x/periph/conn"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

// EmbdBus is an embd-backed SPI link plus CE pin.
type EmbdBus struct {
	Conn *embdConn
	CE   gpio.PinOut
}

// OpenEmbd opens SPI channel 0 through embd in mode 0 at 4MHz, the
// fastest rate embd's rpi driver supports cleanly, and claims the
// named GPIO as the CE output.
func OpenEmbd(cePin string) (*EmbdBus, error) {
	bus := embd.NewSPIBus(embd.SPIMode0, 0, 4, 8, 0)
	p, err := embd.NewDigitalPin(cePin)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("spibus: pin %q: %v", cePin, err)
	}
	if err := p.SetDirection(embd.Out); err != nil {
		bus.Close()
		return nil, fmt.Errorf("spibus: pin %q direction: %v", cePin, err)
	}
	ce := &embdPin{p: p, name: cePin}
	if err := ce.Out(gpio.Low); err != nil {
		bus.Close()
		return nil, err
	}
	return &EmbdBus{Conn: &embdConn{bus: bus}, CE: ce}, nil
}

// Close releases the SPI bus; the CE pin stays claimed by embd.
func (b *EmbdBus) Close() error {
	if err := b.CE.Out(gpio.Low); err != nil {
		return err
	}
	return b.Conn.bus.Close()
}

// embdConn adapts embd.SPIBus to conn.Conn. embd transfers in place,
// so the write buffer is copied into the read buffer first.
type embdConn struct {
	bus embd.SPIBus
}

func (c *embdConn) String() string { return "embd-spi" }

func (c *embdConn) Duplex() periphconn.Duplex { return periphconn.Full }

func (c *embdConn) Tx(w, r []byte) error {
	if len(w) != len(r) {
		return fmt.Errorf("spibus: w/r length mismatch %d/%d", len(w), len(r))
	}
	copy(r, w)
	return c.bus.TransferAndReceiveData(r)
}

// embdPin adapts embd.DigitalPin to gpio.PinOut.
type embdPin struct {
	p    embd.DigitalPin
	name string
}

func (p *embdPin) String() string   { return p.name }
func (p *embdPin) Name() string     { return p.name }
func (p *embdPin) Number() int      { return p.p.N() }
func (p *embdPin) Function() string { return "Out" }
func (p *embdPin) Halt() error      { return p.p.Close() }

func (p *embdPin) Out(l gpio.Level) error {
	v := embd.Low
	if l == gpio.High {
		v = embd.High
	}
	return p.p.Write(v)
}

func (p *embdPin) PWM(gpio.Duty, physic.Frequency) error {
	return fmt.Errorf("spibus: PWM not supported on %q", p.name)
}
