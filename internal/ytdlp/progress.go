package ytdlp

import (
	"math"
	"regexp"
	"strconv"
)

// 進捗行の抽出パターン（yt-dlp --newline の [download] 行を想定）
var (
	rePercent = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)%`)
	reRate    = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?[KMG]?iB/s)`)
	reETA     = regexp.MustCompile(`ETA\s+([0-9]+:[0-9]{2}(?::[0-9]{2})?)`)
)

// Progress は診断行1つから抽出した進捗シグナル
type Progress struct {
	Percent    int  // 四捨五入した進捗率
	HasPercent bool // Percentが抽出できたかどうか
	Rate       string
	ETA        string
}

// Empty はシグナルが1つも抽出できなかったかどうかを返す
func (p Progress) Empty() bool {
	return !p.HasPercent && p.Rate == "" && p.ETA == ""
}

// ParseProgress は外部ツールの診断行から進捗シグナルを抽出する
// 1行から各種類のシグナルは高々1つ。見つからない種類はゼロ値のまま
func ParseProgress(line string) Progress {
	var p Progress
	if m := rePercent.FindStringSubmatch(line); len(m) > 1 {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.Percent = int(math.Round(v))
			p.HasPercent = true
		}
	}
	if m := reRate.FindStringSubmatch(line); len(m) > 1 {
		p.Rate = m[1]
	}
	if m := reETA.FindStringSubmatch(line); len(m) > 1 {
		p.ETA = m[1]
	}
	return p
}
