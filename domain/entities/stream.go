package entities

// Stream identifies one of the I/O channels the host transcribes.
type Stream int

const (
	StreamTTYIn Stream = iota
	StreamTTYOut
	StreamStdin
	StreamStdout
	StreamStderr
)

// Streams lists every stream in table order.
var Streams = []Stream{StreamTTYIn, StreamTTYOut, StreamStdin, StreamStdout, StreamStderr}

var streamNames = [...]string{"ttyin", "ttyout", "stdin", "stdout", "stderr"}

func (s Stream) String() string {
	if s < 0 || int(s) >= len(streamNames) {
		return "unknown"
	}
	return streamNames[s]
}

// HintKey is the command_info key carrying the host's logging hint for s.
func (s Stream) HintKey() string {
	return "iolog_" + s.String()
}

// ParseStream maps a stream name ("ttyin", "stdout", ...) to its Stream.
func ParseStream(name string) (Stream, bool) {
	for i, n := range streamNames {
		if n == name {
			return Stream(i), true
		}
	}
	return 0, false
}
