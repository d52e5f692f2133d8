package session

type State int32

const (
	Idle State = iota
	Recording
	Transcribing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	}
	return "unknown"
}

// Status line messages.
const (
	MsgRecording    = "녹음 중..."
	MsgTranscribing = "음성 인식 중..."
	MsgDone         = "인식 완료"
	MsgReady        = "준비됨"
)
