package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Client is the part of the paho client the publisher needs.
type Client interface {
	IsConnected() bool
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher publishes events as JSON to
// <prefix>/<vehicle id>/schedules/<schedule id>.
type MQTTPublisher struct {
	client Client
	prefix string
	qos    byte
}

// NewMQTTPublisher connects to broker and returns a publisher using QoS 1.
func NewMQTTPublisher(broker, clientID, prefix string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", broker, token.Error())
	}
	log.WithField("broker", broker).Info("Connected to MQTT broker")
	return NewMQTTPublisherWithClient(client, prefix), nil
}

// NewMQTTPublisherWithClient wraps an existing client.
func NewMQTTPublisherWithClient(client Client, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix, qos: 1}
}

// Topic returns the topic an event is published on.
func (p *MQTTPublisher) Topic(event models.ScheduleEvent) string {
	return fmt.Sprintf("%s/%s/schedules/%s", p.prefix, event.VehicleID, event.ScheduleID)
}

// Publish sends the event and waits for the broker, or for ctx to end.
func (p *MQTTPublisher) Publish(ctx context.Context, event models.ScheduleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.ID, err)
	}

	token := p.client.Publish(p.Topic(event), p.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
