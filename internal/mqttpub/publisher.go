// Package mqttpub pushes resolved states and command-set dispatches to
// site equipment over MQTT.
package mqttpub

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/Voltair-Energy/voltair/internal/model"
)

type Publisher struct {
	client mqtt.Client
}

// Connect dials the broker and returns a publisher bound to it.
func Connect(brokerURL, clientID string) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", brokerURL).Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &Publisher{client: client}, nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

// PublishSiteState announces the resolved state on sites/<id>/state.
func (p *Publisher) PublishSiteState(siteID int, state model.SiteState) error {
	payload, _ := json.Marshal(map[string]string{"state": state.String()})
	topic := fmt.Sprintf("sites/%d/state", siteID)

	token := p.client.Publish(topic, 1, true, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish state for site %d: %w", siteID, token.Error())
	}
	return nil
}

// DispatchCommandSet publishes the members of a command set to
// sites/<id>/commands in execution order, honouring each member's delay.
// Conditions are forwarded opaquely; the on-site executor evaluates them.
func (p *Publisher) DispatchCommandSet(siteID int, commands []model.Command, members []model.CommandSetCommand) error {
	byID := make(map[int]model.Command, len(commands))
	for _, c := range commands {
		byID[c.ID] = c
	}

	topic := fmt.Sprintf("sites/%d/commands", siteID)
	for _, m := range members {
		cmd, ok := byID[m.CommandID]
		if !ok {
			return fmt.Errorf("command set %d references unknown command %d", m.CommandSetID, m.CommandID)
		}
		if m.DelayMS != nil && *m.DelayMS > 0 {
			time.Sleep(time.Duration(*m.DelayMS) * time.Millisecond)
		}

		payload, _ := json.Marshal(map[string]any{
			"name":      cmd.Name,
			"payload":   cmd.Payload,
			"order":     m.ExecutionOrder,
			"condition": m.Condition,
		})
		token := p.client.Publish(topic, 1, false, payload)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("failed to dispatch command %q to site %d: %w", cmd.Name, siteID, token.Error())
		}
	}
	return nil
}
