package partition

import "hash/fnv"

// Count is the fixed number of window shards.
// Devices never move between shards for the life of a process.
const Count = 256

// For returns the shard index for a device ID.
// Stable and deterministic: the same deviceID always maps to the same shard.
func For(deviceID string) int {
	h := fnv.New32a()
	h.Write([]byte(deviceID))
	return int(h.Sum32() % Count)
}
