package tracker

// stateCodes fixes the wire encoding for a TaskState, used to pack a
// worker's STATE message body as two 4-byte big-endian integers
// [rank, state] the way the original packs two MPI ints.
var stateCodes = map[TaskState]uint32{
	StateUnknown:     0,
	StateCreated:     1,
	StateInitialized: 2,
	StateRunning:     3,
	StatePaused:      4,
	StateCompleted:   5,
	StateTerminated:  6,
	StateError:       7,
}

var codeStates = func() map[uint32]TaskState {
	m := make(map[uint32]TaskState, len(stateCodes))
	for s, c := range stateCodes {
		m[c] = s
	}
	return m
}()

// EncodeState returns the wire code for state.
func EncodeState(state TaskState) uint32 {
	return stateCodes[state]
}

// DecodeState is the inverse of EncodeState; an unrecognized code decodes
// to StateUnknown.
func DecodeState(code uint32) TaskState {
	if s, ok := codeStates[code]; ok {
		return s
	}
	return StateUnknown
}
