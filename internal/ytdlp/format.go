package ytdlp

import (
	"context"
	"fmt"
	"os/exec"

	"otosu/internal/models"
)

// SelectorFor は画質×フォーマットからフォーマットセレクタを決定する
// 音声フォーマットは画質に関わらず最良の音声を選ぶ。
// 動画フォーマットは要求の高さ以下で最良の映像+音声、なければ同条件の単一ストリーム
func SelectorFor(quality models.Quality, format models.Format) string {
	if format.IsAudio() {
		return "bestaudio/best"
	}
	h := quality.Height()
	if h == 0 {
		h = models.Quality1080.Height()
	}
	return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", h, h)
}

// DownloadOptions は1件のダウンロード実行の指定
type DownloadOptions struct {
	URL     string
	Quality models.Quality
	Format  models.Format
	// OutputPath は拡張子を除いた出力パス。実際の拡張子はツールに任せる
	OutputPath string
}

// DownloadArgs はダウンロード実行の引数一式を構築する
func DownloadArgs(opts DownloadOptions) []string {
	args := []string{
		"--newline",
		"--no-playlist",
		"--no-warnings",
		"--force-ipv4",
		"--geo-bypass",
		"-f", SelectorFor(opts.Quality, opts.Format),
		"-o", opts.OutputPath + ".%(ext)s",
	}
	if opts.Format.IsAudio() {
		args = append(args, "--extract-audio", "--audio-format", string(opts.Format))
	} else {
		// 要求拡張子と一致するコンテナにマージする
		args = append(args, "--merge-output-format", string(opts.Format))
	}
	return append(args, opts.URL)
}

// Download はダウンロードを実行し、診断行ごとにonLineを呼ぶ
// onLineの処理がストリーム読み取りを塞がないよう、呼び出し側で非同期に適用すること
func (c *Client) Download(ctx context.Context, opts DownloadOptions, onLine func(line string)) error {
	cmd := exec.CommandContext(ctx, c.bin, DownloadArgs(opts)...)
	return stream(cmd, onLine)
}
