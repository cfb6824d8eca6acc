// Copyright 2021 by A. Ridyard, see LICENSE file for details

// nrf24-mqtt bridges nRF24L01+ packet radio to an MQTT broker.
// Received packets are published as JSON to <prefix>/rx; messages
// arriving on <prefix>/tx are transmitted to the peer address and
// their outcome published to <prefix>/ack.
//
// With -mux the gateway drives two radios behind a chip select demux
// on one SPI port: radio 0 stays in receive mode while radio 1
// transmits, so an inbound packet is never lost to a TX changeover.
// Without -mux a single radio alternates between the roles.
package main

import (
	"encoding/hex"
	"flag"
	"time"

	_ "github.com/kidoman/embd/host/rpi"
	"github.com/sirupsen/logrus"
	"periph.io/x/periph/conn/gpio/gpioreg"

	"github.com/andyrids/pico-nrf24"
	"github.com/andyrids/pico-nrf24/spibus"
	"github.com/andyrids/pico-nrf24/spimux"
)

func main() {
	mqttHost := flag.String("mqtt", "localhost:1883", "host:port of MQTT broker")
	prefix := flag.String("prefix", "radio", "MQTT topic prefix")
	port := flag.String("port", "", "SPI port name, empty for the platform default")
	ce0 := flag.String("ce0", "GPIO22", "CE pin name for radio 0")
	ce1 := flag.String("ce1", "GPIO23", "CE pin name for radio 1")
	muxPin := flag.String("mux", "", "chip select demux pin name, empty for a single radio")
	useEmbd := flag.Bool("embd", false, "use the embd SPI backend instead of periph")
	channel := flag.Uint("channel", 76, "RF channel, 2..125")
	local := flag.String("addr", "e7e7e7e7e7", "local listen address in hex (pipe 1)")
	peer := flag.String("peer", "c2c2c2c2c2", "peer TX address in hex")
	debug := flag.Bool("debug", false, "enable debug output")
	flag.Parse()

	lg := logrus.New()
	if *debug {
		lg.SetLevel(logrus.DebugLevel)
	}

	localAddr, err := hex.DecodeString(*local)
	if err != nil {
		lg.WithError(err).Fatal("bad -addr")
	}
	peerAddr, err := hex.DecodeString(*peer)
	if err != nil {
		lg.WithError(err).Fatal("bad -peer")
	}

	cfg := nrf24.DefaultConfig()
	cfg.Channel = uint8(*channel)
	cfg.DynamicPayloads = true

	opts := nrf24.RadioOpts{Config: cfg}
	if *debug {
		opts.Logger = lg.Debugf
	}

	var rxRadio, txRadio *nrf24.Radio
	switch {
	case *useEmbd:
		bus, err := spibus.OpenEmbd(*ce0)
		if err != nil {
			lg.WithError(err).Fatal("embd backend")
		}
		defer bus.Close()
		rxRadio, err = nrf24.New(bus.Conn, bus.CE, opts)
		if err != nil {
			lg.WithError(err).Fatal("radio init")
		}

	case *muxPin != "":
		bus, err := spibus.Open(spibus.Opts{Port: *port, CE: *ce0})
		if err != nil {
			lg.WithError(err).Fatal("periph backend")
		}
		defer bus.Close()
		sel := gpioreg.ByName(*muxPin)
		if sel == nil {
			lg.WithField("pin", *muxPin).Fatal("no such mux pin")
		}
		conn0, conn1 := spimux.New(bus.Conn, sel)
		ce1Pin := gpioreg.ByName(*ce1)
		if ce1Pin == nil {
			lg.WithField("pin", *ce1).Fatal("no such CE pin")
		}
		rxRadio, err = nrf24.New(conn0, bus.CE, opts)
		if err != nil {
			lg.WithError(err).Fatal("radio 0 init")
		}
		txRadio, err = nrf24.New(conn1, ce1Pin, opts)
		if err != nil {
			lg.WithError(err).Fatal("radio 1 init")
		}

	default:
		bus, err := spibus.Open(spibus.Opts{Port: *port, CE: *ce0})
		if err != nil {
			lg.WithError(err).Fatal("periph backend")
		}
		defer bus.Close()
		rxRadio, err = nrf24.New(bus.Conn, bus.CE, opts)
		if err != nil {
			lg.WithError(err).Fatal("radio init")
		}
	}

	mq, err := newBroker(*mqttHost, *prefix, lg)
	if err != nil {
		lg.WithError(err).Fatal("mqtt")
	}

	txReq := make(chan []byte, 16)
	if err := mq.subscribeTx(func(p []byte) {
		select {
		case txReq <- p:
		default:
			lg.Warn("tx queue full, dropping packet")
		}
	}); err != nil {
		lg.WithError(err).Fatal("subscribe")
	}

	if err := rxRadio.RxDestination(1, localAddr); err != nil {
		lg.WithError(err).Fatal("listen address")
	}
	if err := rxRadio.Receive(); err != nil {
		lg.WithError(err).Fatal("receive mode")
	}

	if txRadio != nil {
		if err := txRadio.TxDestination(peerAddr); err != nil {
			lg.WithError(err).Fatal("peer address")
		}
		go transmitLoop(txRadio, txReq, mq, lg)
		lg.Info("gateway ready, two radios")
		receiveLoop(rxRadio, nil, mq, lg, nil)
		return
	}

	// Single radio: interleave receiving with transmit requests.
	lg.Info("gateway ready, single radio")
	receiveLoop(rxRadio, txReq, mq, lg, peerAddr)
}

// receiveLoop polls the radio and publishes every packet. When txReq
// is non-nil the same radio also serves transmit requests, dropping to
// standby for each and returning to receive mode afterwards.
func receiveLoop(r *nrf24.Radio, txReq <-chan []byte, mq *broker, lg *logrus.Logger, peer []byte) {
	buf := make([]byte, 32)
	for {
		if txReq != nil {
			select {
			case p := <-txReq:
				if err := r.TxDestination(peer); err != nil {
					lg.WithError(err).Error("peer address")
					continue
				}
				sendOne(r, p, mq, lg)
				if err := r.Receive(); err != nil {
					lg.WithError(err).Fatal("receive mode")
				}
				continue
			default:
			}
		}
		pipe, ok, err := r.Poll()
		if err != nil {
			lg.WithError(err).Fatal("poll")
		}
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		n, err := r.Read(buf)
		if err != nil {
			lg.WithError(err).Warn("read")
			continue
		}
		lg.WithFields(logrus.Fields{"pipe": pipe, "len": n}).Debug("packet received")
		mq.publishRx(pipe, buf[:n])
	}
}

// transmitLoop serves transmit requests on a dedicated radio.
func transmitLoop(r *nrf24.Radio, txReq <-chan []byte, mq *broker, lg *logrus.Logger) {
	for p := range txReq {
		sendOne(r, p, mq, lg)
	}
}

func sendOne(r *nrf24.Radio, p []byte, mq *broker, lg *logrus.Logger) {
	outcome, err := r.Send(p)
	if err != nil {
		lg.WithError(err).Error("send")
		mq.publishAck(err.Error(), p)
		return
	}
	lg.WithFields(logrus.Fields{"outcome": outcome.String(), "len": len(p)}).Debug("packet sent")
	mq.publishAck(outcome.String(), p)
}
