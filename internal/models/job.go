package models

import "time"

// Job は1件のダウンロード要求とその追跡レコード
type Job struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	VideoID     string     `json:"video_id"`
	Title       string     `json:"title"`
	Thumbnail   string     `json:"thumbnail,omitempty"`
	Duration    string     `json:"duration"`
	Channel     string     `json:"channel"`
	Views       string     `json:"views"`
	Quality     Quality    `json:"quality"`
	Format      Format     `json:"format"`
	Filename    string     `json:"filename"`
	Status      Status     `json:"status"`
	Progress    int        `json:"progress"` // 0-100
	Speed       string     `json:"speed,omitempty"`
	ETA         string     `json:"eta,omitempty"`
	Size        int64      `json:"size"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobUpdate は部分更新するフィールド（nilは据え置き）
type JobUpdate struct {
	Status      *Status
	Progress    *int
	Speed       *string
	ETA         *string
	Size        *int64
	CompletedAt *time.Time
}

// Status はジョブの状態
type Status string

// ジョブステータス
const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// IsTerminal は終端状態（これ以上遷移しない）かどうかを返す
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Quality は要求画質
type Quality string

// 画質（低い順）
const (
	Quality360  Quality = "360p"
	Quality480  Quality = "480p"
	Quality720  Quality = "720p"
	Quality1080 Quality = "1080p"
)

// Qualities は対応している画質の一覧
var Qualities = []Quality{Quality360, Quality480, Quality720, Quality1080}

// Height は画質に対応する高さ(px)を返す。未知の値は0
func (q Quality) Height() int {
	switch q {
	case Quality360:
		return 360
	case Quality480:
		return 480
	case Quality720:
		return 720
	case Quality1080:
		return 1080
	}
	return 0
}

// Valid は対応している画質かどうかを返す
func (q Quality) Valid() bool {
	return q.Height() > 0
}

// Format は出力フォーマット
type Format string

// 出力フォーマット。mp4/webmは動画、mp3/m4a/opusは音声のみ
const (
	FormatMP4  Format = "mp4"
	FormatWebM Format = "webm"
	FormatMP3  Format = "mp3"
	FormatM4A  Format = "m4a"
	FormatOpus Format = "opus"
)

// Formats は対応しているフォーマットの一覧
var Formats = []Format{FormatMP4, FormatWebM, FormatMP3, FormatM4A, FormatOpus}

// IsAudio は音声のみのフォーマットかどうかを返す
func (f Format) IsAudio() bool {
	switch f {
	case FormatMP3, FormatM4A, FormatOpus:
		return true
	}
	return false
}

// Valid は対応しているフォーマットかどうかを返す
func (f Format) Valid() bool {
	switch f {
	case FormatMP4, FormatWebM, FormatMP3, FormatM4A, FormatOpus:
		return true
	}
	return false
}
