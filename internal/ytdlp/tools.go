package ytdlp

import (
	"context"
	"os/exec"
	"sync"
	"time"
)

// デフォルトの外部ツール
const (
	DefaultExtractorBin  = "yt-dlp"
	DefaultTranscoderBin = "ffmpeg"
)

// 可用性確認の待ち時間上限。超えた場合は利用不可とみなす
const probeTimeout = 3 * time.Second

// Tools は外部ツールの可用性を保持する
// 一度利用可能と判定したツールは再確認しない。利用不可の間は参照のたびに再確認する
type Tools struct {
	extractor  string
	transcoder string

	mu           sync.Mutex
	extractorOK  bool
	transcoderOK bool
}

// NewTools は新しいToolsを作成。binが空の場合はデフォルトを使う
func NewTools(extractor, transcoder string) *Tools {
	if extractor == "" {
		extractor = DefaultExtractorBin
	}
	if transcoder == "" {
		transcoder = DefaultTranscoderBin
	}
	return &Tools{extractor: extractor, transcoder: transcoder}
}

// Extractor は抽出ツールのバイナリ名を返す
func (t *Tools) Extractor() string {
	return t.extractor
}

// ExtractorAvailable は抽出ツールが利用可能かどうかを返す
func (t *Tools) ExtractorAvailable(ctx context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.extractorOK {
		t.extractorOK = probe(ctx, t.extractor, "--version")
	}
	return t.extractorOK
}

// TranscoderAvailable は変換ツールが利用可能かどうかを返す
func (t *Tools) TranscoderAvailable(ctx context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.transcoderOK {
		t.transcoderOK = probe(ctx, t.transcoder, "-version")
	}
	return t.transcoderOK
}

// probe はバージョン問い合わせでツールの応答を確認する
// 時間内に何らかの出力があれば利用可能とみなす
func probe(ctx context.Context, bin string, arg string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, bin, arg).CombinedOutput()
	if err == nil {
		return true
	}
	return len(out) > 0
}
