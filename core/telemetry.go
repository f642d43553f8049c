package core

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/encodeous/dvhop/state"
	"github.com/google/uuid"
)

// Publisher sends telemetry payloads to an external sink.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Close()
}

type MqttPublisher struct {
	client mqtt.Client
}

// NewMqttPublisher connects to the configured broker. The client keeps retrying in the
// background, so a broker that is not up yet does not fail the node.
func NewMqttPublisher(cfg state.MqttCfg, node state.NodeId) (*MqttPublisher, error) {
	clientId := cfg.ClientId
	if clientId == "" {
		clientId = fmt.Sprintf("dvhop-%s", node)
	}
	o := mqtt.NewClientOptions()
	o.AddBroker(cfg.Broker)
	o.SetClientID(clientId)
	o.SetConnectRetry(true)
	o.SetConnectRetryInterval(state.MqttConnectRetry)
	c := mqtt.NewClient(o)

	token := c.Connect()
	if token.WaitTimeout(state.MqttConnectRetry) && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Broker, token.Error())
	}
	return &MqttPublisher{client: c}, nil
}

func (p *MqttPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(state.MqttPublishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

func (p *MqttPublisher) Close() {
	p.client.Disconnect(state.MqttDisconnectWait)
}

type estimateMessage struct {
	Id          string         `json:"id"`
	Node        state.NodeId   `json:"node"`
	X           float64        `json:"x"`
	Y           float64        `json:"y"`
	At          time.Time      `json:"at"`
	Beacons     []state.NodeId `json:"beacons"`
	HopDistance float64        `json:"hop_distance"`
}

func (e EstimateEvent) message() estimateMessage {
	return estimateMessage{
		Id:          uuid.NewString(),
		Node:        e.Node,
		X:           e.Position.X,
		Y:           e.Position.Y,
		At:          e.At,
		Beacons:     e.Beacons,
		HopDistance: e.HopDistance,
	}
}

// Telemetry forwards estimate events from the trace to a Publisher. It is inactive unless
// the node has an mqtt section or a Publisher was supplied.
type Telemetry struct {
	Publisher Publisher
	topic     string
	trace     *Trace
	events    chan any
	done      chan struct{}
	wg        sync.WaitGroup
}

func (t *Telemetry) Init(s *state.State) error {
	if t.Publisher == nil {
		if s.Mqtt == nil {
			return nil
		}
		p, err := NewMqttPublisher(*s.Mqtt, s.Id)
		if err != nil {
			return err
		}
		t.Publisher = p
	}
	t.topic = "dvhop"
	if s.Mqtt != nil && s.Mqtt.Topic != "" {
		t.topic = s.Mqtt.Topic
	}
	t.events = make(chan any, state.TraceBuffer)
	t.done = make(chan struct{})
	t.trace = Get[*Trace](s)
	t.trace.Register(t.events)

	t.wg.Add(1)
	go t.run(s.Log)
	s.Log.Debug("telemetry enabled", "topic", t.topic)
	return nil
}

func (t *Telemetry) run(log *slog.Logger) {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case ev := <-t.events:
			e, ok := ev.(EstimateEvent)
			if !ok {
				continue
			}
			payload, err := json.Marshal(e.message())
			if err != nil {
				log.Error("failed to encode estimate", "error", err)
				continue
			}
			topic := fmt.Sprintf("%s/%s/position", t.topic, e.Node)
			if err := t.Publisher.Publish(topic, payload); err != nil {
				log.Warn("failed to publish estimate", "topic", topic, "error", err)
			}
		}
	}
}

func (t *Telemetry) Cleanup(s *state.State) error {
	if t.events == nil {
		return nil
	}
	// unregister while run is still draining, otherwise the broadcaster can block on us
	t.trace.Unregister(t.events)
	close(t.done)
	t.wg.Wait()
	t.Publisher.Close()
	return nil
}
