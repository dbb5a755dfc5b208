// Copyright (c) 2024, The FieldSense Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package visualize_mqtt

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fieldsense/wsn-sim/logger"
)

// Publisher is the subset of an MQTT client used by the uplink.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	Close()
}

type Config struct {
	Broker          string // e.g. tcp://localhost:1883
	ClientId        string
	Username        string
	Password        string
	TopicPrefix     string
	Qos             byte
	ConnectRetries  int
	ConnectTimeout  time.Duration
	BreakerFailures int
	BreakerTimeout  time.Duration
	QueueSize       int
}

func DefaultConfig() *Config {
	return &Config{
		TopicPrefix:     "wsnsim",
		Qos:             1,
		ConnectRetries:  5,
		ConnectTimeout:  10 * time.Second,
		BreakerFailures: 3,
		BreakerTimeout:  30 * time.Second,
		QueueSize:       1000,
	}
}

func newClientId() string {
	return fmt.Sprintf("wsnsim-%s", uuid.NewString())
}

type pahoPublisher struct {
	client mqtt.Client
	qos    byte
	topics []string
}

// Connect opens an MQTT connection to cfg.Broker, retrying with exponential backoff.
func Connect(cfg *Config) (Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	clientId := cfg.ClientId
	if clientId == "" {
		clientId = newClientId()
	}
	opts.SetClientID(clientId)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.ConnectTimeout
	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			logger.Warnf("failed to connect to MQTT broker %s: %v", cfg.Broker, token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithMaxRetries(bo, uint64(retries-1)))
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to MQTT broker %s", cfg.Broker)
	}

	logger.Infof("connected to MQTT broker %s as %s", cfg.Broker, clientId)
	return &pahoPublisher{client: client, qos: cfg.Qos}, nil
}

func (p *pahoPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, false, payload)
	token.Wait()
	return token.Error()
}

func (p *pahoPublisher) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := p.client.Subscribe(topic, p.qos, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "subscribe %s", topic)
	}
	p.topics = append(p.topics, topic)
	return nil
}

func (p *pahoPublisher) Close() {
	for _, topic := range p.topics {
		p.client.Unsubscribe(topic).Wait()
	}
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		logger.Debugf("MQTT connection closed")
	}
}
