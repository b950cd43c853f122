package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// メタ情報取得の待ち時間上限
// 抽出ツールが応答しない場合に直列キューを止めないための上限
const DefaultInfoTimeout = 60 * time.Second

// 取得できなかったフィールドの既定値
const (
	UnknownTitle = "Unknown Title"
	UnknownValue = "Unknown"
)

// VideoInfo は動画のメタ情報（表示用に整形済み）
type VideoInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Duration  string `json:"duration"`
	Channel   string `json:"channel"`
	Views     string `json:"views"`
}

// InfoErrorKind はメタ情報取得の失敗分類
type InfoErrorKind string

// メタ情報取得の失敗分類。先に一致したものが採用される
const (
	ErrMissingBinary    InfoErrorKind = "missing_binary"
	ErrForbidden        InfoErrorKind = "forbidden"
	ErrVideoUnavailable InfoErrorKind = "video_unavailable"
	ErrPrivateVideo     InfoErrorKind = "private_video"
	ErrRegionRestricted InfoErrorKind = "region_restricted"
	ErrParse            InfoErrorKind = "parse_error"
	ErrUnknown          InfoErrorKind = "unknown"
)

// InfoError は分類済みのメタ情報取得エラー
type InfoError struct {
	Kind   InfoErrorKind
	Detail string
}

func (e *InfoError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Message は呼び出し元に返す短い説明文
func (e *InfoError) Message() string {
	switch e.Kind {
	case ErrMissingBinary:
		return "yt-dlp is not installed or not on PATH"
	case ErrForbidden:
		return "access to the video was blocked"
	case ErrVideoUnavailable:
		return "video is unavailable"
	case ErrPrivateVideo:
		return "video is private"
	case ErrRegionRestricted:
		return "video is not available in this region"
	case ErrParse:
		return "could not parse video metadata"
	}
	return "failed to fetch video info"
}

// rawInfo は抽出ツールのJSON出力
type rawInfo struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Thumbnail      string      `json:"thumbnail"`
	Duration       float64     `json:"duration"`
	Uploader       string      `json:"uploader"`
	Channel        string      `json:"channel"`
	ViewCount      int64       `json:"view_count"`
	FilesizeApprox int64       `json:"filesize_approx"`
	Formats        []rawFormat `json:"formats"`
}

// rawFormat は利用可能なエンコード1件
type rawFormat struct {
	FormatID       string   `json:"format_id"`
	Height         int      `json:"height"`
	VCodec         string   `json:"vcodec"`
	ACodec         string   `json:"acodec"`
	Filesize       *float64 `json:"filesize"`
	FilesizeApprox *float64 `json:"filesize_approx"`
}

// Client は外部抽出ツールの呼び出し口
type Client struct {
	bin         string
	infoTimeout time.Duration
}

// NewClient は新しいClientを作成。binが空の場合はyt-dlpを使う
func NewClient(bin string) *Client {
	if bin == "" {
		bin = DefaultExtractorBin
	}
	return &Client{bin: bin, infoTimeout: DefaultInfoTimeout}
}

// metadataArgs はメタ情報のみを取得する引数一式
// ネットワーク起因の揺らぎを抑えるためIPv4固定と地域ヒューリスティクス回避を併用する
func metadataArgs(url string) []string {
	return []string{
		"--dump-json",
		"--no-playlist",
		"--skip-download",
		"--no-warnings",
		"--force-ipv4",
		"--geo-bypass",
		url,
	}
}

// FetchInfo はURLからメタ情報を取得する
// 失敗は*InfoErrorに分類して返す
func (c *Client) FetchInfo(ctx context.Context, url string) (*VideoInfo, error) {
	raw, err := c.fetchRaw(ctx, url)
	if err != nil {
		return nil, err
	}
	return infoFromRaw(raw), nil
}

// infoFromRaw はJSON出力を表示用の値に正規化する
// 欠けているフィールドは失敗させず既定値に落とす
func infoFromRaw(raw *rawInfo) *VideoInfo {
	info := &VideoInfo{
		ID:        raw.ID,
		Title:     raw.Title,
		Thumbnail: raw.Thumbnail,
		Duration:  FormatDuration(int64(raw.Duration)),
		Channel:   raw.Uploader,
		Views:     FormatViews(raw.ViewCount),
	}
	if info.Title == "" {
		info.Title = UnknownTitle
	}
	if info.Channel == "" {
		info.Channel = raw.Channel
	}
	if info.Channel == "" {
		info.Channel = UnknownValue
	}
	return info
}

// fetchRaw は抽出ツールをメタ情報モードで起動し、JSON出力を読み取る
func (c *Client) fetchRaw(ctx context.Context, url string) (*rawInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.infoTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.bin, metadataArgs(url)...)
	stdout, stderr, err := output(cmd)
	if err != nil {
		if IsNotFound(err) {
			return nil, &InfoError{Kind: ErrMissingBinary, Detail: err.Error()}
		}
		return nil, classifyInfoError(string(stderr))
	}

	stdout = bytes.TrimSpace(stdout)
	if len(stdout) == 0 {
		return nil, classifyInfoError(string(stderr))
	}

	var raw rawInfo
	if err := json.Unmarshal(stdout, &raw); err != nil {
		return nil, &InfoError{Kind: ErrParse, Detail: err.Error()}
	}
	return &raw, nil
}

// classifyInfoError は診断テキストから失敗を分類する。先に一致したものが優先
func classifyInfoError(stderr string) *InfoError {
	detail := strings.TrimSpace(stderr)
	lower := strings.ToLower(detail)

	kind := ErrUnknown
	switch {
	case strings.Contains(lower, "403") || strings.Contains(lower, "forbidden"):
		kind = ErrForbidden
	case strings.Contains(lower, "video unavailable"):
		kind = ErrVideoUnavailable
	case strings.Contains(lower, "private video"):
		kind = ErrPrivateVideo
	case strings.Contains(lower, "not available in your country") ||
		strings.Contains(lower, "geo restriction"):
		kind = ErrRegionRestricted
	}
	return &InfoError{Kind: kind, Detail: detail}
}

// FormatDuration は秒数を表示用文字列に整形する
// 1時間以上はH:MM:SS、それ未満はM:SS。0以下は"Unknown"
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return UnknownValue
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatViews は再生回数を表示用文字列に整形する
// 100万以上はM、1000以上はKを付けて小数1桁。0以下は"Unknown"
func FormatViews(views int64) string {
	switch {
	case views <= 0:
		return UnknownValue
	case views >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(views)/1_000_000)
	case views >= 1_000:
		return fmt.Sprintf("%.1fK", float64(views)/1_000)
	}
	return fmt.Sprintf("%d", views)
}
