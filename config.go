// Copyright 2021 by A. Ridyard, see LICENSE file for details

package nrf24

import "fmt"

// DataRate selects the over-the-air bit rate. The values are the
// RF_DR_LOW/RF_DR_HIGH encodings of the RF_SETUP register.
type DataRate byte

const (
	DataRate1Mbps   DataRate = 0x00
	DataRate2Mbps   DataRate = 0x08
	DataRate250kbps DataRate = 0x20

	dataRateMask = 0x28
)

func (d DataRate) String() string {
	switch d {
	case DataRate1Mbps:
		return "1Mbps"
	case DataRate2Mbps:
		return "2Mbps"
	case DataRate250kbps:
		return "250kbps"
	}
	return fmt.Sprintf("DataRate(%#x)", byte(d))
}

// TxPower selects the RF output power in TX mode. The values are the
// RF_PWR encodings of the RF_SETUP register.
type TxPower byte

const (
	PowerMinus18dBm TxPower = 0x00
	PowerMinus12dBm TxPower = 0x02
	PowerMinus6dBm  TxPower = 0x04
	Power0dBm       TxPower = 0x06

	txPowerMask = 0x06
)

// DBm returns the output power in dBm.
func (p TxPower) DBm() int { return 3*int(p&txPowerMask) - 18 }

func (p TxPower) String() string { return fmt.Sprintf("%ddBm", p.DBm()) }

// RetrDelay selects the auto retransmit delay (ARD), the time the
// transmitter waits for an acknowledgment before retransmitting. The
// values are the ARD encodings of the SETUP_RETR register.
type RetrDelay byte

const (
	RetrDelay250us  RetrDelay = 0x00
	RetrDelay500us  RetrDelay = 0x10
	RetrDelay750us  RetrDelay = 0x20
	RetrDelay1000us RetrDelay = 0x30
)

// Micros returns the delay in microseconds.
func (d RetrDelay) Micros() int { return (int(d>>4) + 1) * 250 }

func (d RetrDelay) String() string { return fmt.Sprintf("%dus", d.Micros()) }

// AllPipes addresses every data pipe at once where an operation
// accepts a pipe number, e.g. SetPayloadSize.
const AllPipes uint8 = 6

// Config is the device configuration committed during initialisation.
// The zero value is not valid; start from DefaultConfig.
type Config struct {
	AddressWidth    uint8     // RX/TX address width in bytes, 3 to 5
	RetrDelay       RetrDelay // auto retransmit delay (ARD)
	RetrCount       uint8     // auto retransmit count (ARC), 0 to 15
	DataRate        DataRate  // air data rate
	Power           TxPower   // TX output power
	Channel         uint8     // RF channel, 2 to 125 (2400+n MHz)
	DynamicPayloads bool      // per-packet payload widths (DPL)
}

// DefaultConfig returns a conservative starting configuration: 5-byte
// addresses, 500us/10 retransmits, 1Mbps at 0dBm on channel 76, fixed
// payload widths. Channel 76 sits above most Wi-Fi traffic.
func DefaultConfig() Config {
	return Config{
		AddressWidth: 5,
		RetrDelay:    RetrDelay500us,
		RetrCount:    10,
		DataRate:     DataRate1Mbps,
		Power:        Power0dBm,
		Channel:      76,
	}
}

// Validate checks every field of the configuration against the chip's
// legal ranges. All checks run independently but a single failing
// field invalidates the whole configuration: nothing is applied to the
// device, since a partially applied illegal configuration leaves the
// RF section in a state that is hard to diagnose from the application.
func (c Config) Validate() error {
	if c.AddressWidth < 3 || c.AddressWidth > 5 {
		return fmt.Errorf("%w: address width %d, must be 3..5 bytes",
			ErrInvalidParam, c.AddressWidth)
	}
	if c.Channel < 2 || c.Channel > 125 {
		return fmt.Errorf("%w: channel %d, must be 2..125",
			ErrInvalidParam, c.Channel)
	}
	switch c.DataRate {
	case DataRate250kbps, DataRate1Mbps, DataRate2Mbps:
	default:
		return fmt.Errorf("%w: data rate %#x", ErrInvalidParam, byte(c.DataRate))
	}
	switch c.Power {
	case PowerMinus18dBm, PowerMinus12dBm, PowerMinus6dBm, Power0dBm:
	default:
		return fmt.Errorf("%w: tx power %#x", ErrInvalidParam, byte(c.Power))
	}
	if c.RetrCount > 15 {
		return fmt.Errorf("%w: retransmit count %d, must be 0..15",
			ErrInvalidParam, c.RetrCount)
	}
	switch c.RetrDelay {
	case RetrDelay250us, RetrDelay500us, RetrDelay750us, RetrDelay1000us:
	default:
		return fmt.Errorf("%w: retransmit delay %#x", ErrInvalidParam, byte(c.RetrDelay))
	}
	return nil
}
