package miniaudio

import (
	"encoding/binary"
	"math"
)

// putFloat32 writes samples as little-endian float32, clamped to [-1, 1].
func putFloat32(dst []byte, samples []float32) {
	for i, s := range samples {
		if i*4+4 > len(dst) {
			return
		}
		s = min(max(s, -1), 1)
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
}

func readFloat32(dst []float32, src []byte) {
	for i := range dst {
		if i*4+4 > len(src) {
			return
		}
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
}
