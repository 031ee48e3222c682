// Package nodeconfig loads, merges and saves the node's device configuration.
//
// The configuration is a flat JSON record holding the broker address, the
// node's client identifier, peripheral pin assignments and boot defaults.
// It is always total: persisted values are decoded over compiled-in
// defaults, so a field missing from the file keeps its default.
//
// # First Boot
//
// A missing or corrupt file is not an error. Load falls back to defaults,
// derives a client identifier from the hardware identity and immediately
// writes the result back. The identifier never changes after that.
//
// # Remote Replacement
//
// MergeRemote applies a JSON document received over MQTT. The document must
// carry every key required by the node's variant; anything less is rejected
// wholesale and the stored record is left untouched.
//
// # Storage
//
// Bytes are read and written through the Storage interface. FileStorage
// writes atomically (temp file + rename) with 0600 permissions.
//
//	store := nodeconfig.NewStore(nodeconfig.NewFileStorage("/var/lib/graylogic-node/config.json"), nodeconfig.Defaults())
//	cfg := store.Load()
package nodeconfig
