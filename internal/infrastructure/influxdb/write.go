package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-node/internal/device"
)

// Measurement names written by a node.
const (
	MeasurementDeviceState = "device_state"
	MeasurementLink        = "link"
)

// WriteState records an applied device state.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WriteState("graylogic_a1b2c3d4e5f6", device.VariantLED, snap, device.StateHistorySourceControl)
func (c *Client) WriteState(deviceID string, variant device.Variant, snap device.Snapshot, source string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(statePoint(deviceID, variant, snap, source, time.Now()))
}

// WriteLinkState records a link lifecycle transition.
func (c *Client) WriteLinkState(deviceID string, state string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(linkPoint(deviceID, state, time.Now()))
}

func statePoint(deviceID string, variant device.Variant, snap device.Snapshot, source string, ts time.Time) *write.Point {
	fields := map[string]interface{}{
		"power": snap.Power,
	}

	switch variant {
	case device.VariantRelay:
		fields["relay"] = snap.RelayPosition
	default:
		rgb := snap.Output()
		fields["hue"] = snap.HueDegrees()
		fields["saturation"] = snap.SaturationPercent()
		fields["brightness"] = snap.BrightnessPercent()
		fields["r"] = int64(rgb.R)
		fields["g"] = int64(rgb.G)
		fields["b"] = int64(rgb.B)
	}

	return write.NewPoint(
		MeasurementDeviceState,
		map[string]string{
			"device_id": deviceID,
			"variant":   string(variant),
			"source":    source,
		},
		fields,
		ts,
	)
}

func linkPoint(deviceID string, state string, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementLink,
		map[string]string{"device_id": deviceID},
		map[string]interface{}{"state": state},
		ts,
	)
}
