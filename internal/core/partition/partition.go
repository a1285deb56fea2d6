package partition

import "hash/fnv"

// Count is the fixed number of logical partitions of the usage table.
// Never changes after initial deployment: rows already written carry their partition id.
const Count = 256

// For returns the partition ID for a metering key.
// Stable and deterministic: the same key always maps to the same partition.
func For(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % Count)
}
