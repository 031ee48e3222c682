package nodeconfig

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net"
	"os"

	"github.com/google/uuid"
)

const (
	// clientIDPrefix prefixes every generated client identifier.
	clientIDPrefix = "graylogic_"

	// clientIDBytes is how many bytes of the derived UUID appear in the id.
	clientIDBytes = 6

	// DefaultMachineIDPath is where systemd hosts keep their machine id.
	DefaultMachineIDPath = "/etc/machine-id"
)

// nodeNamespace scopes name-based UUIDs derived from hardware ids.
var nodeNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("graylogic-node"))

// HardwareIDSource returns bytes that uniquely and stably identify the host.
type HardwareIDSource func() ([]byte, error)

// MachineHardwareID returns a HardwareIDSource that reads the machine id at
// path, falling back to the first non-loopback interface MAC address.
func MachineHardwareID(path string) HardwareIDSource {
	return func() ([]byte, error) {
		if path != "" {
			if data, err := os.ReadFile(path); err == nil {
				if id := bytes.TrimSpace(data); len(id) > 0 {
					return id, nil
				}
			}
		}

		ifaces, err := net.Interfaces()
		if err != nil {
			return nil, fmt.Errorf("%w: listing interfaces: %w", ErrNoHardwareID, err)
		}
		for _, iface := range ifaces {
			if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
				continue
			}
			return []byte(iface.HardwareAddr), nil
		}

		return nil, ErrNoHardwareID
	}
}

// ClientIDFromHardware derives a stable client identifier from a hardware id.
func ClientIDFromHardware(hw []byte) string {
	u := uuid.NewSHA1(nodeNamespace, hw)
	return clientIDPrefix + hex.EncodeToString(u[:clientIDBytes])
}

// RandomClientID generates a client identifier when no hardware id exists.
func RandomClientID() string {
	u := uuid.New()
	return clientIDPrefix + hex.EncodeToString(u[:clientIDBytes])
}
