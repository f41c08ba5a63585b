// internal/status/encode.go
package status

// Encode converts a Snapshot into the live part of a status block
// (slots 0..SlotLiveEnd, the rest zero). Counters saturate at 65535.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = s.LastErrorCode
	regs[SlotSecondsInError] = clamp(s.SecondsInError)
	regs[SlotScanning] = flag(s.Scanning)
	regs[SlotLastRoundCount] = clamp(s.LastRoundCount)
	regs[SlotUniqueTags] = clamp(s.UniqueTags)
	regs[SlotRounds] = clamp(s.Rounds)
	regs[SlotLastRoundStatus] = s.LastRoundStatus
	regs[SlotFeedback] = flag(s.Feedback)

	return regs
}

func clamp(v uint32) uint16 {
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

func flag(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
