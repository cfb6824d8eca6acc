// Copyright 2021 by A. Ridyard, see LICENSE file for details

// nrf24-test exercises an nRF24L01+ on an SPI port: "tx" sends a
// couple of numbered packets to the peer address and reports each
// outcome, the default receives and prints packets. "regs" dumps the
// register file and exits.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/andyrids/pico-nrf24"
	"github.com/andyrids/pico-nrf24/spibus"
)

func panicIf(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	port := flag.String("port", "", "SPI port name, empty for the platform default")
	cePin := flag.String("ce", "GPIO22", "CE pin name")
	channel := flag.Uint("channel", 76, "RF channel, 2..125")
	addr := flag.String("addr", "e7e7e7e7e7", "5-byte address in hex")
	debug := flag.Bool("debug", false, "enable driver debug output")
	flag.Parse()

	var logger nrf24.LogPrintf
	if *debug {
		logger = log.Printf
	}

	bus, err := spibus.Open(spibus.Opts{Port: *port, CE: *cePin})
	panicIf(err)
	defer bus.Close()

	address, err := hex.DecodeString(*addr)
	panicIf(err)

	cfg := nrf24.DefaultConfig()
	cfg.Channel = uint8(*channel)
	cfg.DynamicPayloads = true

	log.Printf("Initializing nRF24L01+...")
	t0 := time.Now()
	radio, err := nrf24.New(bus.Conn, bus.CE, nrf24.RadioOpts{
		Config: cfg,
		Logger: logger,
	})
	panicIf(err)
	log.Printf("Ready (%.1fms)", time.Since(t0).Seconds()*1000)

	switch flag.Arg(0) {
	case "regs":
		radio.SetLogger(log.Printf)
		radio.LogRegs()

	case "tx":
		panicIf(radio.TxDestination(address))
		for i := 1; i <= 2; i++ {
			log.Printf("Sending packet %d ...", i)
			t0 = time.Now()
			msg := fmt.Sprintf("Hello %03d", i)
			outcome, err := radio.Send([]byte(msg))
			panicIf(err)
			log.Printf("Outcome %s in %.1fms", outcome, time.Since(t0).Seconds()*1000)
			if outcome == nrf24.TxRetriesExhausted {
				lost, retried, err := radio.TxObserve()
				panicIf(err)
				log.Printf("Observe: lost=%d retried=%d", lost, retried)
			}
			time.Sleep(100 * time.Millisecond)
		}
		log.Printf("Bye...")

	case "", "rx":
		panicIf(radio.RxDestination(1, address))
		panicIf(radio.Receive())
		log.Printf("Receiving packets ...")
		buf := make([]byte, 32)
		for {
			pipe, ok, err := radio.Poll()
			panicIf(err)
			if !ok {
				time.Sleep(time.Millisecond)
				continue
			}
			n, err := radio.Read(buf)
			if err != nil {
				log.Printf("Read: %s", err)
				continue
			}
			log.Printf("Got len=%d pipe=%d %q", n, pipe, string(buf[:n]))
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q, want tx, rx or regs\n", flag.Arg(0))
		os.Exit(1)
	}
}
