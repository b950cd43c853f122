package ytdlp

import (
	"context"
	"math"

	"otosu/internal/models"
)

// EstimateSize は出力ファイルサイズの見積もりを返す
// ベストエフォートで、失敗時は0を返す。ジョブを失敗させる理由にはならない
func (c *Client) EstimateSize(ctx context.Context, url string, quality models.Quality, format models.Format) int64 {
	raw, err := c.fetchRaw(ctx, url)
	if err != nil {
		return 0
	}
	return pickSize(raw, quality, format)
}

// pickSize はエンコード一覧から要求に合うサイズを選ぶ
// 動画は高さの完全一致、音声は音声のみのエンコードを優先する。
// 一致しない場合は最後のエンコード、次いでおおよその合計サイズにフォールバック
func pickSize(raw *rawInfo, quality models.Quality, format models.Format) int64 {
	for i := range raw.Formats {
		f := &raw.Formats[i]
		sz := f.size()
		if sz <= 0 {
			continue
		}
		if format.IsAudio() {
			if f.audioOnly() {
				return sz
			}
		} else if f.Height == quality.Height() {
			return sz
		}
	}

	if n := len(raw.Formats); n > 0 {
		if sz := raw.Formats[n-1].size(); sz > 0 {
			return sz
		}
	}
	if raw.FilesizeApprox > 0 {
		return raw.FilesizeApprox
	}
	return 0
}

// audioOnly は音声のみのエンコードかどうかを返す
func (f *rawFormat) audioOnly() bool {
	return f.ACodec != "" && f.ACodec != "none" && (f.VCodec == "" || f.VCodec == "none")
}

// size はエンコードのサイズを返す。実サイズ優先、なければ概算
func (f *rawFormat) size() int64 {
	for _, v := range []*float64{f.Filesize, f.FilesizeApprox} {
		if v != nil && *v > 0 {
			return int64(math.Round(*v))
		}
	}
	return 0
}
