package db

import (
	"encoding/binary"
	"math"
)

// topicsToBytes packs a topic vector as little-endian float64s. nil stays nil.
func topicsToBytes(v []float64) []byte {
	if v == nil {
		return nil
	}
	data := make([]byte, len(v)*8)
	for i, x := range v {
		binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(x))
	}
	return data
}

// bytesToTopics converts a little-endian byte slice to []float64.
// Each 8 bytes = one LE float64. Short trailing chunk → 0.0.
func bytesToTopics(data []byte) []float64 {
	if data == nil {
		return nil
	}
	n := len(data) / 8
	if len(data)%8 != 0 {
		n++ // include partial chunk as 0.0
	}
	result := make([]float64, n)
	for i := 0; i < len(data)/8; i++ {
		result[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8 : i*8+8]))
	}
	return result
}
