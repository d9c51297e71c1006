package tts

import (
	"encoding/binary"
	"strings"
)

const (
	// wordsPerSecond matches a measured conversational synthesis rate.
	wordsPerSecond = 2.5
	// minEstimatedSeconds keeps the client's playback window from
	// collapsing on very short replies.
	minEstimatedSeconds = 3.0
)

// EstimateDuration approximates spoken duration from word count. Used when
// no artifact exists to measure, and as the floor for degraded turns.
func EstimateDuration(text string) float64 {
	words := len(strings.Fields(text))
	d := float64(words) / wordsPerSecond
	if d < minEstimatedSeconds {
		return minEstimatedSeconds
	}
	return d
}

// wavDuration parses a RIFF/WAVE header and returns the clip duration in
// seconds. Returns false for anything that is not a plain PCM WAV file.
func wavDuration(data []byte) (float64, bool) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, false
	}
	// Walk chunks; fmt gives the byte rate, data gives the payload size.
	var byteRate uint32
	var dataLen uint32
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + 8
		switch id {
		case "fmt ":
			if body+16 > len(data) {
				return 0, false
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
		case "data":
			dataLen = size
		}
		off = body + int(size)
		if size%2 == 1 {
			off++
		}
	}
	if byteRate == 0 || dataLen == 0 {
		return 0, false
	}
	return float64(dataLen) / float64(byteRate), true
}
