package download

// SubmitErrorKind は投入前チェックの失敗分類
type SubmitErrorKind string

// 投入前チェックの失敗分類
const (
	ErrInvalidURL       SubmitErrorKind = "invalid_url"
	ErrToolUnavailable  SubmitErrorKind = "tool_unavailable"
	ErrUnsupportedAudio SubmitErrorKind = "unsupported_audio_request"
)

// SubmitError はジョブ作成前に返す分類済みエラー
type SubmitError struct {
	Kind    SubmitErrorKind
	Message string
}

func (e *SubmitError) Error() string {
	return string(e.Kind) + ": " + e.Message
}
