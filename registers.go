// Copyright 2021 by A. Ridyard, see LICENSE file for details

package nrf24

// SPI command opcodes [datasheet 8.3.1]. Register reads/writes OR the
// 5-bit register address into the low bits of R_REGISTER/W_REGISTER.
const (
	R_REGISTER   = 0x00 // read register, low 5 bits select the register
	W_REGISTER   = 0x20 // write register, low 5 bits select the register
	R_RX_PL_WID  = 0x60 // read RX payload width for top RX FIFO payload
	R_RX_PAYLOAD = 0x61 // read RX payload
	W_TX_PAYLOAD = 0xA0 // write TX payload
	FLUSH_TX     = 0xE1 // flush TX FIFO
	FLUSH_RX     = 0xE2 // flush RX FIFO
	REUSE_TX_PL  = 0xE3 // reuse last transmitted payload
	NOP          = 0xFF // no operation, returns the STATUS register

	REGISTER_MASK = 0x1F // 5-bit register address mask for R/W_REGISTER
)

// Register map [datasheet 9].
const (
	REG_CONFIG      = 0x00
	REG_EN_AA       = 0x01
	REG_EN_RXADDR   = 0x02
	REG_SETUP_AW    = 0x03
	REG_SETUP_RETR  = 0x04
	REG_RF_CH       = 0x05
	REG_RF_SETUP    = 0x06
	REG_STATUS      = 0x07
	REG_OBSERVE_TX  = 0x08
	REG_RPD         = 0x09
	REG_RX_ADDR_P0  = 0x0A
	REG_RX_ADDR_P1  = 0x0B
	REG_RX_ADDR_P2  = 0x0C
	REG_RX_ADDR_P3  = 0x0D
	REG_RX_ADDR_P4  = 0x0E
	REG_RX_ADDR_P5  = 0x0F
	REG_TX_ADDR     = 0x10
	REG_RX_PW_P0    = 0x11
	REG_RX_PW_P1    = 0x12
	REG_RX_PW_P2    = 0x13
	REG_RX_PW_P3    = 0x14
	REG_RX_PW_P4    = 0x15
	REG_RX_PW_P5    = 0x16
	REG_FIFO_STATUS = 0x17
	REG_DYNPD       = 0x1C
	REG_FEATURE     = 0x1D
)

// ConfigReg is the value of the CONFIG register (0x00).
type ConfigReg byte

const (
	cfgPrimRx    ConfigReg = 1 << 0 // 1: PRX, 0: PTX
	cfgPwrUp     ConfigReg = 1 << 1 // 1: power up, 0: power down
	cfgCRCO      ConfigReg = 1 << 2 // CRC scheme, 0: 1 byte, 1: 2 bytes
	cfgEnCRC     ConfigReg = 1 << 3 // enable CRC
	cfgMaskMaxRT ConfigReg = 1 << 4 // mask MAX_RT interrupt
	cfgMaskTxDS  ConfigReg = 1 << 5 // mask TX_DS interrupt
	cfgMaskRxDR  ConfigReg = 1 << 6 // mask RX_DR interrupt
)

// PrimRx reports whether the PRIM_RX bit is set.
func (c ConfigReg) PrimRx() bool { return c&cfgPrimRx != 0 }

// PowerUp reports whether the PWR_UP bit is set.
func (c ConfigReg) PowerUp() bool { return c&cfgPwrUp != 0 }

// WithPrimRx returns the register value with PRIM_RX set or cleared.
func (c ConfigReg) WithPrimRx(on bool) ConfigReg {
	if on {
		return c | cfgPrimRx
	}
	return c &^ cfgPrimRx
}

// WithPowerUp returns the register value with PWR_UP set or cleared.
func (c ConfigReg) WithPowerUp(on bool) ConfigReg {
	if on {
		return c | cfgPwrUp
	}
	return c &^ cfgPwrUp
}

// Status is the value of the STATUS register (0x07), returned as the
// first byte of every SPI transaction. RX_DR, TX_DS and MAX_RT are
// write-1-to-clear.
type Status byte

const (
	statTxFull Status = 1 << 0 // TX FIFO full flag
	statMaxRT  Status = 1 << 4 // max TX retransmits interrupt
	statTxDS   Status = 1 << 5 // data sent TX FIFO interrupt
	statRxDR   Status = 1 << 6 // data ready RX FIFO interrupt

	statIRQMask = statRxDR | statTxDS | statMaxRT
)

// RxReady reports whether the data-ready (RX_DR) bit is set.
func (s Status) RxReady() bool { return s&statRxDR != 0 }

// DataSent reports whether the data-sent (TX_DS) bit is set. With
// auto-ack enabled it asserts only once the acknowledgment arrived.
func (s Status) DataSent() bool { return s&statTxDS != 0 }

// MaxRetries reports whether the MAX_RT bit is set.
func (s Status) MaxRetries() bool { return s&statMaxRT != 0 }

// TxFull reports whether the TX FIFO is full.
func (s Status) TxFull() bool { return s&statTxFull != 0 }

// RxPipe returns the pipe number of the top RX FIFO payload, or -1 if
// the RX FIFO is empty.
func (s Status) RxPipe() int {
	n := int(s>>1) & 0x07
	if n > 5 {
		return -1
	}
	return n
}

// FifoStatus is the value of the FIFO_STATUS register (0x17).
type FifoStatus byte

const (
	fifoRxEmpty FifoStatus = 1 << 0
	fifoRxFull  FifoStatus = 1 << 1
	fifoTxEmpty FifoStatus = 1 << 4
	fifoTxFull  FifoStatus = 1 << 5
)

// RxEmpty reports whether the RX FIFO holds no payloads.
func (f FifoStatus) RxEmpty() bool { return f&fifoRxEmpty != 0 }

// TxEmpty reports whether the TX FIFO holds no payloads.
func (f FifoStatus) TxEmpty() bool { return f&fifoTxEmpty != 0 }

// RxFull reports whether the RX FIFO is full.
func (f FifoStatus) RxFull() bool { return f&fifoRxFull != 0 }

// TxFull reports whether the TX FIFO is full.
func (f FifoStatus) TxFull() bool { return f&fifoTxFull != 0 }

// PipeMask is a bitmask over the six RX data pipes, used by the EN_AA,
// EN_RXADDR and DYNPD registers.
type PipeMask byte

const (
	PipeMask0 PipeMask = 1 << iota
	PipeMask1
	PipeMask2
	PipeMask3
	PipeMask4
	PipeMask5
	PipeMaskAll PipeMask = 0x3F
)

// With returns the mask with the given pipe's bit set.
func (m PipeMask) With(pipe uint8) PipeMask { return m | 1<<pipe }

// Has reports whether the given pipe's bit is set.
func (m PipeMask) Has(pipe uint8) bool { return m&(1<<pipe) != 0 }

// FEATURE register bits (0x1D).
const (
	featEnDynAck = 0x01 // enables W_TX_PAYLOAD_NOACK
	featEnAckPay = 0x02 // enables payload with ACK
	featEnDPL    = 0x04 // enables dynamic payload length
)

// rxAddrReg returns the RX address register for a pipe.
func rxAddrReg(pipe uint8) byte { return REG_RX_ADDR_P0 + pipe }

// rxWidthReg returns the RX payload width register for a pipe.
func rxWidthReg(pipe uint8) byte { return REG_RX_PW_P0 + pipe }
