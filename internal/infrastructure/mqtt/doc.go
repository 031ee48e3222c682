// Package mqtt provides the MQTT transport for a Gray Logic node.
//
// This package manages:
//   - A single broker session per process run (no auto-reconnect)
//   - Message publishing with QoS guarantees
//   - Subscriptions to the node's inbound topics
//   - Last Will and Testament (LWT) on {client_id}/status
//   - Reporting of session loss on Lost()
//
// # Topics
//
// Every topic is rooted at the node's client id:
//
//	{id}/control       inbound textual commands
//	{id}/config        inbound JSON configuration replacement
//	{id}/state         "on" / "off", retained
//	{id}/state/color   JSON colour state (LED nodes), retained
//	{id}/status        "online" / "offline", retained, LWT
//
// # Security Considerations
//
//   - Use TLS outside a trusted LAN (mqtt.tls: true)
//   - Credentials should come from GRAYLOGIC_NODE_MQTT_USERNAME / _PASSWORD
//   - Inbound payloads are untrusted and validated by the controller
//
// # Usage
//
//	client := mqtt.New(mqtt.NewOptions(settings.MQTT, cfg.Broker, cfg.ClientID))
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.Control(cfg.ClientID), 1, handler)
//	client.PublishRetained(mqtt.Topics{}.State(cfg.ClientID), []byte("on"))
package mqtt
