// Copyright 2021 by A. Ridyard, see LICENSE file for details

// Package nrf24 interfaces with a Nordic nRF24L01+ 2.4GHz packet radio
// connected to an SPI bus, plus a GPIO pin for the radio's CE line.
//
// The driver is a register-level protocol core: it owns the sequence of
// register reads and writes, the settle delays and the CE line states
// that move the chip between power down, standby, transmit and receive,
// and it interprets the chip's interrupt status bits to classify what
// happened to a transmitted packet. Raw SPI setup (baud rate, SPI mode,
// chip select) belongs to the bus backend; see the spibus package.
//
// Transmission uses the chip's Enhanced ShockBurst auto-acknowledgment:
// Send pushes one payload, pulses CE, and then polls until the hardware
// reports either the peer's acknowledgment or an exhausted retry
// budget. The driver never resends bytes itself; retries are the
// hardware's, bounded by the configured delay and count. Reception is
// polled as well: Poll reports a pending packet and its pipe, Read
// drains it.
//
// The methods on Radio are not concurrency safe. The driver is fully
// synchronous and a register transaction must complete before the next
// begins, so multi-threaded use has to serialize all calls behind a
// single mutex or goroutine; interleaved transactions would corrupt the
// chip's status-byte-then-data response protocol.
package nrf24

import (
	"fmt"
	"time"

	"periph.io/x/periph/conn"
	"periph.io/x/periph/conn/gpio"
)

const maxPayload = 32 // FIFO payload limit in bytes

// Datasheet timing. The power-on reset window applies once after VDD
// rises; the oscillator startup follows every PWR_UP assertion.
const (
	powerOnDelay = 100 * time.Millisecond
	oscStartup   = 5 * time.Millisecond
	settleDelay  = 130 * time.Microsecond // standby to TX/RX
	cePulse      = 10 * time.Microsecond  // minimum CE pulse to launch a TX
	pollInterval = 100 * time.Microsecond
)

// Mode is the device operating mode. Standby-II (CE high, TX FIFO
// empty) is transient and not tracked separately.
type Mode byte

const (
	ModePowerDown Mode = iota
	ModeStandby
	ModeTx
	ModeRx
)

func (m Mode) String() string {
	switch m {
	case ModePowerDown:
		return "power-down"
	case ModeStandby:
		return "standby"
	case ModeTx:
		return "tx"
	case ModeRx:
		return "rx"
	}
	return "unknown"
}

// LogPrintf is a function used by the driver to print logging info.
type LogPrintf func(format string, v ...interface{})

// RadioOpts contains options used when initializing a Radio.
type RadioOpts struct {
	Config Config    // device configuration, zero value means DefaultConfig
	Logger LogPrintf // function to use for logging, nil disables logging
	// Sleep replaces time.Sleep for settle delays and poll intervals,
	// letting tests simulate time. Nil means time.Sleep.
	Sleep func(time.Duration)
}

// Radio represents a single nRF24L01+ transceiver. The instance
// exclusively owns the SPI connection and the CE pin; CE and the
// PRIM_RX configuration bit are mutated only by the mode transition
// methods so that they always agree with the tracked mode.
type Radio struct {
	spi conn.Conn   // SPI connection to the radio, CSN handled per Tx
	ce  gpio.PinOut // chip enable line
	// configuration
	cfg Config // live device configuration, validated before commit
	// state
	mode         Mode
	payloadWidth uint8   // fixed payload width last committed, 0 if unset
	pipe0Addr    [5]byte // application-assigned pipe 0 address
	pipe0Set     bool    // pipe0Addr is valid and must be restored for RX
	rxPending    bool    // RX_DR observed (and cleared) during a send poll
	log          LogPrintf
	sleep        func(time.Duration)
}

// New initializes an nRF24L01+ given an SPI connection and the CE pin,
// and leaves the radio in standby with both FIFOs flushed. The SPI bus
// must be configured for mode 0 and at most 10MHz.
//
// The configuration is validated as a whole before anything is written
// to the chip. The initialisation sequence then runs in the strict
// order the chip requires: power-up and oscillator startup first, since
// several registers only take effect deterministically once the
// oscillator runs.
func New(dev conn.Conn, ce gpio.PinOut, opts RadioOpts) (*Radio, error) {
	r := &Radio{
		spi:   dev,
		ce:    ce,
		cfg:   opts.Config,
		mode:  ModePowerDown,
		log:   func(format string, v ...interface{}) {},
		sleep: time.Sleep,
	}
	if opts.Logger != nil {
		r.log = func(format string, v ...interface{}) {
			opts.Logger("nrf24: "+format, v...)
		}
	}
	if opts.Sleep != nil {
		r.sleep = opts.Sleep
	}
	if r.cfg == (Config{}) {
		r.cfg = DefaultConfig()
	}
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	// Try to synchronize communication with the chip by writing a
	// pattern through TX_ADDR and reading it back.
	probe := func(pattern byte) error {
		want := [5]byte{pattern, pattern, pattern, pattern, pattern}
		for n := 10; n > 0; n-- {
			if err := r.writeReg(REG_TX_ADDR, want[:]...); err != nil {
				return err
			}
			var got [5]byte
			if err := r.readRegN(REG_TX_ADDR, got[:]); err != nil {
				return err
			}
			if got == want {
				return nil
			}
		}
		return fmt.Errorf("nrf24: cannot sync with chip: %w", ErrTransport)
	}

	// CE low before anything else: the chip must not leave standby
	// until the mode machine says so.
	if err := ce.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("nrf24: ce: %v: %w", err, ErrModeTransition)
	}

	// Power-on reset window.
	r.sleep(powerOnDelay)

	if err := probe(0xAA); err != nil {
		return nil, err
	}
	if err := probe(0x55); err != nil {
		return nil, err
	}

	// Power up with CRC enabled (2-byte scheme), then wait for the
	// crystal oscillator before touching anything else.
	if err := r.writeReg(REG_CONFIG, byte(cfgEnCRC|cfgCRCO|cfgPwrUp)); err != nil {
		return nil, err
	}
	r.sleep(oscStartup)
	r.mode = ModeStandby

	// Auto-acknowledgment on all pipes, then the committed config.
	if err := r.writeReg(REG_EN_AA, byte(PipeMaskAll)); err != nil {
		return nil, err
	}
	if err := r.applyConfig(r.cfg); err != nil {
		return nil, err
	}

	// Clear the three interrupt bits and flush both FIFOs so no stale
	// state from a previous run survives.
	if err := r.writeReg(REG_STATUS, byte(statIRQMask)); err != nil {
		return nil, err
	}
	if err := r.FlushTx(); err != nil {
		return nil, err
	}
	if err := r.FlushRx(); err != nil {
		return nil, err
	}

	r.log("initialised: %d byte addresses, channel %d, %s at %s, retr %dx%s, dpl=%v",
		r.cfg.AddressWidth, r.cfg.Channel, r.cfg.DataRate, r.cfg.Power,
		r.cfg.RetrCount, r.cfg.RetrDelay, r.cfg.DynamicPayloads)
	return r, nil
}

// Configure validates a full configuration record and commits it to
// the chip. Nothing is written if any field is out of range. The radio
// should be in standby; an active mode is re-entered by the caller.
func (r *Radio) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return r.applyConfig(cfg)
}

// applyConfig writes an already validated configuration, in the same
// order the initialisation sequence uses.
func (r *Radio) applyConfig(cfg Config) error {
	if err := r.writeReg(REG_SETUP_AW, cfg.AddressWidth-2); err != nil {
		return err
	}
	if err := r.writeReg(REG_SETUP_RETR, byte(cfg.RetrDelay)|cfg.RetrCount); err != nil {
		return err
	}
	if err := r.writeReg(REG_RF_CH, cfg.Channel); err != nil {
		return err
	}
	if err := r.writeReg(REG_RF_SETUP, byte(cfg.DataRate)|byte(cfg.Power)); err != nil {
		return err
	}
	r.cfg = cfg
	if cfg.DynamicPayloads {
		return r.EnableDynamicPayloads()
	}
	// Tear the feature down too, so a reconfiguration away from
	// dynamic payloads cannot leave EN_DPL set on the chip while the
	// driver assumes fixed widths.
	return r.DisableDynamicPayloads()
}

// Mode returns the tracked device mode.
func (r *Radio) Mode() Mode { return r.mode }

// Config returns the live device configuration.
func (r *Radio) Config() Config { return r.cfg }

// SetLogger sets a logging function, nil may be used to disable
// logging, which is the default.
func (r *Radio) SetLogger(l LogPrintf) {
	if l != nil {
		r.log = l
	} else {
		r.log = func(format string, v ...interface{}) {}
	}
}

//===== register access

// transfer performs one full-duplex SPI exchange. The backend asserts
// CSN for the duration, so one call is one chip transaction.
func (r *Radio) transfer(w, rx []byte) error {
	if err := r.spi.Tx(w, rx); err != nil {
		return fmt.Errorf("nrf24: %v: %w", err, ErrTransport)
	}
	return nil
}

// writeReg writes one or more bytes to a register. Writes to
// RX_ADDR_P2..RX_ADDR_P5 are truncated to a single byte: those pipes
// hold only the LSB of their address and share the 4 MSBs of
// RX_ADDR_P1 in hardware.
func (r *Radio) writeReg(reg byte, data ...byte) error {
	if reg >= REG_RX_ADDR_P2 && reg <= REG_RX_ADDR_P5 && len(data) > 1 {
		data = data[:1]
	}
	wBuf := make([]byte, len(data)+1)
	rBuf := make([]byte, len(data)+1)
	wBuf[0] = W_REGISTER | reg&REGISTER_MASK
	copy(wBuf[1:], data)
	return r.transfer(wBuf, rBuf)
}

// readReg reads one register byte. The first response byte is always
// the STATUS register and is discarded here.
func (r *Radio) readReg(reg byte) (byte, error) {
	var buf [2]byte
	if err := r.transfer([]byte{reg & REGISTER_MASK, NOP}, buf[:]); err != nil {
		return 0, err
	}
	return buf[1], nil
}

// readRegN reads len(buf) bytes from a multi-byte register.
func (r *Radio) readRegN(reg byte, buf []byte) error {
	wBuf := make([]byte, len(buf)+1)
	rBuf := make([]byte, len(buf)+1)
	wBuf[0] = reg & REGISTER_MASK
	for i := 1; i < len(wBuf); i++ {
		wBuf[i] = NOP
	}
	if err := r.transfer(wBuf, rBuf); err != nil {
		return err
	}
	copy(buf, rBuf[1:])
	return nil
}

// command sends a single-byte command and returns the STATUS value the
// chip shifts out in response.
func (r *Radio) command(cmd byte) (Status, error) {
	w := [1]byte{cmd}
	var rx [1]byte
	if err := r.transfer(w[:], rx[:]); err != nil {
		return 0, err
	}
	return Status(rx[0]), nil
}

// Status reads the STATUS register without side effects.
func (r *Radio) Status() (Status, error) { return r.command(NOP) }

// irq reads the STATUS register and clears whichever of the three
// interrupt bits are set, using the chip's write-1-to-clear
// convention. The pre-clear value is returned for classification.
func (r *Radio) irq() (Status, error) {
	st, err := r.Status()
	if err != nil {
		return 0, err
	}
	if bits := st & statIRQMask; bits != 0 {
		if err := r.writeReg(REG_STATUS, byte(bits)); err != nil {
			return 0, err
		}
	}
	return st, nil
}

// FlushTx discards all payloads held in the TX FIFO.
func (r *Radio) FlushTx() error {
	_, err := r.command(FLUSH_TX)
	return err
}

// FlushRx discards all payloads held in the RX FIFO.
func (r *Radio) FlushRx() error {
	_, err := r.command(FLUSH_RX)
	return err
}

//===== mode state machine

// Standby drops the radio from TX or RX mode back into Standby-I by
// driving CE low. Leaving TX also clears PRIM_RX if it was left set,
// which it normally is not.
func (r *Radio) Standby() error {
	if err := r.ce.Out(gpio.Low); err != nil {
		return fmt.Errorf("nrf24: ce: %v: %w", err, ErrModeTransition)
	}
	if r.mode == ModeTx {
		v, err := r.readReg(REG_CONFIG)
		if err != nil {
			return fmt.Errorf("%v: %w", err, ErrModeTransition)
		}
		if cr := ConfigReg(v); cr.PrimRx() {
			if err := r.writeReg(REG_CONFIG, byte(cr.WithPrimRx(false))); err != nil {
				return fmt.Errorf("%v: %w", err, ErrModeTransition)
			}
		}
	}
	r.mode = ModeStandby
	return nil
}

// enterTx clears PRIM_RX if it is set, which readies the chip for
// transmission; the actual TX burst is launched by the CE pulse in
// Send. The chip settles within 130us of the bit clearing.
func (r *Radio) enterTx() error {
	v, err := r.readReg(REG_CONFIG)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrModeTransition)
	}
	if cr := ConfigReg(v); cr.PrimRx() {
		if err := r.writeReg(REG_CONFIG, byte(cr.WithPrimRx(false))); err != nil {
			return fmt.Errorf("%v: %w", err, ErrModeTransition)
		}
		r.sleep(settleDelay)
	}
	r.mode = ModeTx
	return nil
}

// Receive puts the radio into RX mode: PRIM_RX set, CE high and held
// high for the duration of receive mode. If the application ever
// assigned a pipe 0 address it is restored first, because transmitting
// overwrites RX_ADDR_P0 with the TX destination to catch the
// acknowledgment; without the restore the application would silently
// stop receiving on pipe 0.
func (r *Radio) Receive() error {
	v, err := r.readReg(REG_CONFIG)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrModeTransition)
	}
	if cr := ConfigReg(v); !cr.PrimRx() {
		if err := r.writeReg(REG_CONFIG, byte(cr.WithPrimRx(true))); err != nil {
			return fmt.Errorf("%v: %w", err, ErrModeTransition)
		}
	}
	if r.pipe0Set {
		if err := r.writeReg(REG_RX_ADDR_P0, r.pipe0Addr[:r.cfg.AddressWidth]...); err != nil {
			return fmt.Errorf("%v: %w", err, ErrModeTransition)
		}
	}
	if err := r.ce.Out(gpio.High); err != nil {
		return fmt.Errorf("nrf24: ce: %v: %w", err, ErrModeTransition)
	}
	r.sleep(settleDelay)
	r.mode = ModeRx
	return nil
}

//===== address & pipe management

// TxDestination sets the peer address transmissions go to. The same
// address is written to RX_ADDR_P0 because with auto-ack the local
// chip listens on pipe 0, with the peer's address, for the
// acknowledgment frame.
func (r *Radio) TxDestination(addr []byte) error {
	if len(addr) != int(r.cfg.AddressWidth) {
		return fmt.Errorf("%w: tx address is %d bytes, want %d",
			ErrInvalidParam, len(addr), r.cfg.AddressWidth)
	}
	if err := r.writeReg(REG_RX_ADDR_P0, addr...); err != nil {
		return err
	}
	return r.writeReg(REG_TX_ADDR, addr...)
}

// RxDestination assigns a receive address to a pipe and enables the
// pipe. Pipes 0 and 1 take a full address; pipes 2 to 5 store a single
// byte and inherit the 4 MSBs of pipe 1's address, so any longer
// buffer is truncated to its first byte.
//
// A pipe 0 address is additionally cached so Receive can restore it
// after a transmit cycle overwrites the register.
func (r *Radio) RxDestination(pipe uint8, addr []byte) error {
	if pipe > 5 {
		return fmt.Errorf("%w: pipe %d", ErrInvalidParam, pipe)
	}
	if len(addr) == 0 {
		return fmt.Errorf("%w: empty address", ErrInvalidParam)
	}
	if pipe <= 1 && len(addr) != int(r.cfg.AddressWidth) {
		return fmt.Errorf("%w: pipe %d address is %d bytes, want %d",
			ErrInvalidParam, pipe, len(addr), r.cfg.AddressWidth)
	}
	if pipe == 0 {
		copy(r.pipe0Addr[:], addr)
		r.pipe0Set = true
	}
	if err := r.writeReg(rxAddrReg(pipe), addr...); err != nil {
		return err
	}
	v, err := r.readReg(REG_EN_RXADDR)
	if err != nil {
		return err
	}
	if m := PipeMask(v); !m.Has(pipe) {
		return r.writeReg(REG_EN_RXADDR, byte(m.With(pipe)))
	}
	return nil
}

// SetPayloadSize commits a fixed payload width for one pipe, or for
// all six pipes when AllPipes is given. With fixed widths the receiver
// only delivers packets whose payload matches the pipe's width.
func (r *Radio) SetPayloadSize(pipe, width uint8) error {
	if width < 1 || width > maxPayload {
		return fmt.Errorf("%w: payload width %d, must be 1..%d",
			ErrInvalidParam, width, maxPayload)
	}
	if pipe > AllPipes {
		return fmt.Errorf("%w: pipe %d", ErrInvalidParam, pipe)
	}
	if pipe == AllPipes {
		for p := uint8(0); p <= 5; p++ {
			if err := r.writeReg(rxWidthReg(p), width); err != nil {
				return err
			}
		}
	} else if err := r.writeReg(rxWidthReg(pipe), width); err != nil {
		return err
	}
	r.payloadWidth = width
	return nil
}

// EnableDynamicPayloads turns on the dynamic payload length feature on
// all pipes; the chip then reports each received packet's width and
// Read queries it instead of using a fixed size.
func (r *Radio) EnableDynamicPayloads() error {
	v, err := r.readReg(REG_FEATURE)
	if err != nil {
		return err
	}
	if err := r.writeReg(REG_FEATURE, v|featEnDPL); err != nil {
		return err
	}
	if err := r.writeReg(REG_DYNPD, byte(PipeMaskAll)); err != nil {
		return err
	}
	r.cfg.DynamicPayloads = true
	return nil
}

// DisableDynamicPayloads reverts to fixed payload widths.
func (r *Radio) DisableDynamicPayloads() error {
	v, err := r.readReg(REG_FEATURE)
	if err != nil {
		return err
	}
	if err := r.writeReg(REG_FEATURE, v&^featEnDPL); err != nil {
		return err
	}
	if err := r.writeReg(REG_DYNPD, 0); err != nil {
		return err
	}
	r.cfg.DynamicPayloads = false
	return nil
}

//===== single-field configuration updates

// SetChannel moves the radio to an RF channel (2400+n MHz).
func (r *Radio) SetChannel(channel uint8) error {
	if channel < 2 || channel > 125 {
		return fmt.Errorf("%w: channel %d, must be 2..125", ErrInvalidParam, channel)
	}
	if err := r.writeReg(REG_RF_CH, channel); err != nil {
		return err
	}
	r.cfg.Channel = channel
	return nil
}

// SetDataRate changes the air data rate, preserving the power bits of
// RF_SETUP.
func (r *Radio) SetDataRate(rate DataRate) error {
	switch rate {
	case DataRate250kbps, DataRate1Mbps, DataRate2Mbps:
	default:
		return fmt.Errorf("%w: data rate %#x", ErrInvalidParam, byte(rate))
	}
	v, err := r.readReg(REG_RF_SETUP)
	if err != nil {
		return err
	}
	if err := r.writeReg(REG_RF_SETUP, v&^byte(dataRateMask)|byte(rate)); err != nil {
		return err
	}
	r.cfg.DataRate = rate
	r.log("SetDataRate %s", rate)
	return nil
}

// SetPower changes the TX output power, preserving the data rate bits
// of RF_SETUP.
func (r *Radio) SetPower(power TxPower) error {
	switch power {
	case PowerMinus18dBm, PowerMinus12dBm, PowerMinus6dBm, Power0dBm:
	default:
		return fmt.Errorf("%w: tx power %#x", ErrInvalidParam, byte(power))
	}
	v, err := r.readReg(REG_RF_SETUP)
	if err != nil {
		return err
	}
	if err := r.writeReg(REG_RF_SETUP, v&^byte(txPowerMask)|byte(power)); err != nil {
		return err
	}
	r.cfg.Power = power
	r.log("SetPower %s", power)
	return nil
}

// SetRetransmit changes the hardware's retry timing and budget. A
// count of 0 disables retransmission entirely.
func (r *Radio) SetRetransmit(delay RetrDelay, count uint8) error {
	switch delay {
	case RetrDelay250us, RetrDelay500us, RetrDelay750us, RetrDelay1000us:
	default:
		return fmt.Errorf("%w: retransmit delay %#x", ErrInvalidParam, byte(delay))
	}
	if count > 15 {
		return fmt.Errorf("%w: retransmit count %d, must be 0..15",
			ErrInvalidParam, count)
	}
	if err := r.writeReg(REG_SETUP_RETR, byte(delay)|count); err != nil {
		return err
	}
	r.cfg.RetrDelay = delay
	r.cfg.RetrCount = count
	return nil
}

// SetAddressWidth changes the address width used by pipes 0 and 1 and
// the TX destination. Addresses assigned afterwards must match it.
func (r *Radio) SetAddressWidth(width uint8) error {
	if width < 3 || width > 5 {
		return fmt.Errorf("%w: address width %d, must be 3..5", ErrInvalidParam, width)
	}
	if err := r.writeReg(REG_SETUP_AW, width-2); err != nil {
		return err
	}
	r.cfg.AddressWidth = width
	return nil
}

//===== packet transmission

// Send transmits one payload to the configured TX destination and
// blocks until the hardware resolves the outcome: the peer's
// acknowledgment arrived (TxAcknowledged) or the retry budget ran out
// (TxRetriesExhausted). The worst case blocking time is bounded by the
// hardware itself, delay x (count+1), about 16ms at the maximum
// settings; the driver imposes no timeout of its own.
//
// A packet arriving while the poll loop runs is recorded and reported
// by the next Poll; it does not end the loop.
//
// When Send returns the CE pulse is over and PRIM_RX is clear, so the
// chip is back in Standby-I and Mode reports that.
func (r *Radio) Send(payload []byte) (TxOutcome, error) {
	if len(payload) == 0 || len(payload) > maxPayload {
		return TxPending, fmt.Errorf("%w: payload of %d bytes, must be 1..%d",
			ErrInvalidParam, len(payload), maxPayload)
	}
	if !r.cfg.DynamicPayloads && r.payloadWidth != 0 && len(payload) > int(r.payloadWidth) {
		return TxPending, fmt.Errorf("%w: payload of %d bytes exceeds fixed width %d",
			ErrInvalidParam, len(payload), r.payloadWidth)
	}
	if r.mode == ModeRx {
		if err := r.Standby(); err != nil {
			return TxPending, err
		}
	}
	if err := r.enterTx(); err != nil {
		return TxPending, err
	}

	// Frame the payload behind the write-payload opcode.
	wBuf := make([]byte, len(payload)+1)
	rBuf := make([]byte, len(payload)+1)
	wBuf[0] = W_TX_PAYLOAD
	copy(wBuf[1:], payload)
	if err := r.transfer(wBuf, rBuf); err != nil {
		return TxPending, err
	}

	// Pulse CE to hand the packet to the hardware, which sends and
	// waits for the acknowledgment, retransmitting on its own.
	if err := r.ce.Out(gpio.High); err != nil {
		return TxPending, fmt.Errorf("nrf24: ce: %v: %w", err, ErrTransport)
	}
	r.sleep(cePulse)
	if err := r.ce.Out(gpio.Low); err != nil {
		return TxPending, fmt.Errorf("nrf24: ce: %v: %w", err, ErrTransport)
	}

	// Poll the interrupt bits until the hardware reports a verdict.
	for {
		st, err := r.irq()
		if err != nil {
			return TxPending, err
		}
		if st.RxReady() {
			// Incoming packet during the TX cycle; hand it to Poll.
			r.rxPending = true
		}
		if st.DataSent() {
			r.mode = ModeStandby
			return TxAcknowledged, nil
		}
		if st.MaxRetries() {
			r.mode = ModeStandby
			return TxRetriesExhausted, nil
		}
		r.sleep(pollInterval)
	}
}

//===== packet reception

// Poll reports whether a received packet is waiting and, if so, on
// which pipe it arrived. The data-ready bit is cleared; the payload
// stays in the RX FIFO until Read drains it. Poll never blocks, the
// application supplies its own loop.
func (r *Radio) Poll() (pipe int, ok bool, err error) {
	st, err := r.Status()
	if err != nil {
		return -1, false, err
	}
	ready := st.RxReady() || r.rxPending
	r.rxPending = false
	if st.RxReady() {
		if err := r.writeReg(REG_STATUS, byte(statRxDR)); err != nil {
			return -1, false, err
		}
	}
	if !ready {
		return -1, false, nil
	}
	pipe = st.RxPipe()
	return pipe, pipe >= 0, nil
}

// Read drains the top RX FIFO payload into buf and returns the number
// of bytes copied. With dynamic payloads enabled the chip is asked for
// the packet's width first; a reported width above 32 bytes means the
// FIFO entry is corrupt, so the RX FIFO is flushed and
// ErrPayloadCorrupt returned without attempting the payload read.
func (r *Radio) Read(buf []byte) (int, error) {
	if len(buf) == 0 || len(buf) > maxPayload {
		return 0, fmt.Errorf("%w: read buffer of %d bytes, must be 1..%d",
			ErrInvalidParam, len(buf), maxPayload)
	}
	n := len(buf)
	if r.cfg.DynamicPayloads {
		var rx [2]byte
		if err := r.transfer([]byte{R_RX_PL_WID, NOP}, rx[:]); err != nil {
			return 0, err
		}
		w := int(rx[1])
		if w > maxPayload {
			if err := r.FlushRx(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("%w: reported width %d", ErrPayloadCorrupt, w)
		}
		if w == 0 {
			return 0, nil
		}
		if w < n {
			n = w
		}
	}
	wBuf := make([]byte, n+1)
	rBuf := make([]byte, n+1)
	wBuf[0] = R_RX_PAYLOAD
	for i := 1; i < len(wBuf); i++ {
		wBuf[i] = NOP
	}
	if err := r.transfer(wBuf, rBuf); err != nil {
		return 0, err
	}
	copy(buf, rBuf[1:])
	return n, nil
}

//===== diagnostics

// TxObserve returns the lost-packet and retransmission counters from
// OBSERVE_TX. The lost counter saturates at 15 and resets when the
// channel is written.
func (r *Radio) TxObserve() (lost, retried uint8, err error) {
	v, err := r.readReg(REG_OBSERVE_TX)
	if err != nil {
		return 0, 0, err
	}
	return v >> 4, v & 0x0F, nil
}

// ReadRegister reads one register byte for debugging.
func (r *Radio) ReadRegister(reg byte) (byte, error) {
	if reg > REG_FEATURE {
		return 0, fmt.Errorf("%w: register %#x", ErrInvalidParam, reg)
	}
	return r.readReg(reg)
}

// LogRegs is a debug helper that prints the chip's register file
// through the configured logger.
func (r *Radio) LogRegs() {
	r.log("     0  1  2  3  4  5  6  7  8  9  A  B  C  D  E  F")
	for base := byte(0); base <= REG_FEATURE; base += 16 {
		line := fmt.Sprintf("%02x:", base)
		for off := byte(0); off < 16 && base+off <= REG_FEATURE; off++ {
			v, err := r.readReg(base + off)
			if err != nil {
				r.log("read %#x: %s", base+off, err)
				return
			}
			line += fmt.Sprintf(" %02x", v)
		}
		r.log(line)
	}
}
