// Copyright 2021 by A. Ridyard, see LICENSE file for details

package nrf24

import "errors"

// Sentinel errors returned (wrapped) by the driver. Match with
// errors.Is.
var (
	// ErrInvalidParam indicates a caller-supplied value outside the
	// chip's legal range: a bad pipe number, a payload width of 0 or
	// above 32, a malformed configuration.
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrTransport indicates the raw SPI exchange failed or moved
	// fewer bytes than requested. The driver never retries these; the
	// caller decides.
	ErrTransport = errors.New("spi transport failure")

	// ErrModeTransition indicates a register write during a device
	// mode change failed, leaving the mode uncertain.
	ErrModeTransition = errors.New("mode transition failure")

	// ErrPayloadCorrupt indicates the chip reported a dynamic payload
	// width above the 32-byte maximum; the RX FIFO entry is corrupt
	// and has been flushed.
	ErrPayloadCorrupt = errors.New("corrupt payload in RX FIFO")
)

// TxOutcome classifies the result of a transmission, derived from the
// three mutually exclusive interrupt bits of the STATUS register.
type TxOutcome int

const (
	// TxPending means neither the acknowledgment nor the retry budget
	// has resolved yet; keep polling.
	TxPending TxOutcome = iota

	// TxAcknowledged means the peer's auto-acknowledgment arrived.
	TxAcknowledged

	// TxRetriesExhausted means the hardware gave up after the
	// configured number of retransmissions. This is a reported
	// outcome ("peer unreachable"), not a driver failure.
	TxRetriesExhausted
)

func (o TxOutcome) String() string {
	switch o {
	case TxPending:
		return "pending"
	case TxAcknowledged:
		return "acknowledged"
	case TxRetriesExhausted:
		return "retries exhausted"
	}
	return "unknown"
}
