package redis

// HashFunc maps a key to a 32-bit value used to pick a partition slot.
type HashFunc func(key []byte) uint32

// Time33Hash is the classic "times 33" string hash, the partitioned
// client's default hash function.
func Time33Hash(key []byte) uint32 {
	var h uint32
	for _, b := range key {
		h = h*33 + uint32(b)
	}
	return h
}
