// Copyright 2021 by A. Ridyard, see LICENSE file for details

package nrf24

// Client is the capability surface an application uses to drive a
// radio. It is the full public API of Radio minus construction and
// debug helpers, so application code and tests can swap in a fake.
type Client interface {
	// Configuration.
	Configure(cfg Config) error
	SetChannel(channel uint8) error
	SetDataRate(rate DataRate) error
	SetPower(power TxPower) error
	SetRetransmit(delay RetrDelay, count uint8) error
	SetAddressWidth(width uint8) error
	SetPayloadSize(pipe, width uint8) error
	EnableDynamicPayloads() error
	DisableDynamicPayloads() error

	// Addressing.
	TxDestination(addr []byte) error
	RxDestination(pipe uint8, addr []byte) error

	// Mode transitions.
	Standby() error
	Receive() error

	// Packet I/O.
	Send(payload []byte) (TxOutcome, error)
	Poll() (pipe int, ok bool, err error)
	Read(buf []byte) (int, error)
	FlushTx() error
	FlushRx() error
}

var _ Client = (*Radio)(nil)
