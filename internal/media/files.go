package media

import (
	"os"
	"path/filepath"
	"strings"
)

// ファイル名の基底部の最大長
const maxBaseNameLen = 80

// EnsureDir はダウンロード先ディレクトリを作成する
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// SanitizeFilename はタイトルからファイル名の基底部を作る
// 英数と . _ - のみを残し、空白は_に置換、最大長で切り詰める。
// 何も残らない場合は"video"を返す
func SanitizeFilename(title string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case r == ' ' || r == '_':
			// 連続させない
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	name := strings.Trim(b.String(), "._-")
	if len(name) > maxBaseNameLen {
		name = strings.Trim(name[:maxBaseNameLen], "._-")
	}
	if name == "" {
		return "video"
	}
	return name
}

// ArtifactPath は出力ファイルのフルパスを返す
func ArtifactPath(dir, base, ext string) string {
	return filepath.Join(dir, base+"."+ext)
}

// FileSize はファイルサイズを返す。存在しない場合や取得できない場合は0
func FileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// Exists はファイルが存在するかどうかを返す
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Remove はファイルを削除する。存在しない場合は何もしない
func Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
