// Copyright 2021 by A. Ridyard, see LICENSE file for details

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// rxEvent is published to <prefix>/rx for every packet the radio
// receives. The payload is base64 in the JSON encoding.
type rxEvent struct {
	Pipe    int       `json:"pipe"`
	Payload []byte    `json:"payload"`
	At      time.Time `json:"at"`
}

// txResult is published to <prefix>/ack after each transmission
// requested via <prefix>/tx.
type txResult struct {
	Outcome string    `json:"outcome"`
	Payload []byte    `json:"payload"`
	At      time.Time `json:"at"`
}

// broker wraps the paho client: JSON in, JSON out, topics under one
// prefix. The connection auto-reconnects and resubscribes.
type broker struct {
	conn   mqtt.Client
	prefix string
	log    *logrus.Logger
}

func newBroker(host, prefix string, lg *logrus.Logger) (*broker, error) {
	hostname, _ := os.Hostname()
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s", host)).
		SetClientID("nrf24-mqtt-" + hostname).
		SetAutoReconnect(true).
		SetOrderMatters(false)
	conn := mqtt.NewClient(opts)
	token := conn.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", host)
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	lg.WithField("broker", host).Info("mqtt connected")
	return &broker{conn: conn, prefix: prefix, log: lg}, nil
}

func (b *broker) publish(suffix string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.log.WithError(err).Error("marshal")
		return
	}
	b.conn.Publish(b.prefix+suffix, 1, false, payload)
}

func (b *broker) publishRx(pipe int, payload []byte) {
	b.publish("/rx", rxEvent{Pipe: pipe, Payload: payload, At: time.Now()})
}

func (b *broker) publishAck(outcome string, payload []byte) {
	b.publish("/ack", txResult{Outcome: outcome, Payload: payload, At: time.Now()})
}

// subscribeTx delivers the raw payload of every message on
// <prefix>/tx to the handler. Handlers run on paho's router
// goroutine, so they should only enqueue.
func (b *broker) subscribeTx(h func([]byte)) error {
	token := b.conn.Subscribe(b.prefix+"/tx", 1, func(_ mqtt.Client, m mqtt.Message) {
		h(m.Payload())
	})
	token.Wait()
	return token.Error()
}
