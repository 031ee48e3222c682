// Package influxdb provides InfluxDB connectivity for node state telemetry.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched non-blocking writes and health monitoring.
//
// # Measurements
//
//   - device_state: one point per applied state change
//     (tags device_id, variant, source; fields power, hue, saturation,
//     brightness, r, g, b or relay)
//   - link: one point per link lifecycle transition (field state)
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, settings.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteState(clientID, device.VariantLED, snap, device.StateHistorySourceControl)
//
// Telemetry is best effort: write failures are delivered to SetOnError
// and never block the control loop.
package influxdb
