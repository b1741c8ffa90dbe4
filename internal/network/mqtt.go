package network

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/mihrab-app/mihrab/internal/model"
)

const syncStatusTopic = "mihrab/sync/status"

// MQTTSource feeds broker connectivity into a Monitor: a held broker
// connection counts as connected and reachable, a lost one as disconnected.
// It also publishes sync-status snapshots for companion clients.
type MQTTSource struct {
	client mqtt.Client
}

// ConnectMQTT dials the broker and wires its connection callbacks into the
// monitor. The caller keeps running without a source when this fails; the
// monitor then stays at its offline default.
func ConnectMQTT(brokerURL, clientID string, monitor *Monitor) (*MQTTSource, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)

	up := true
	down := false
	opts.OnConnect = func(client mqtt.Client) {
		log.Info().Str("broker", brokerURL).Msg("connected to MQTT broker")
		monitor.HandleEvent(model.NetworkEvent{
			Connected:         &up,
			InternetReachable: &up,
			Type:              "broker",
		})
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Error().Err(err).Msg("MQTT connection lost")
		monitor.HandleEvent(model.NetworkEvent{
			Connected:         &down,
			InternetReachable: &down,
			Type:              "broker",
		})
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &MQTTSource{client: client}, nil
}

// PublishSyncStatus sends the snapshot to the sync-status topic, best effort.
func (s *MQTTSource) PublishSyncStatus(status model.SyncStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	token := s.client.Publish(syncStatusTopic, 1, true, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish sync status: %w", token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSource) Close() {
	s.client.Disconnect(250)
}
