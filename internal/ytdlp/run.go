package ytdlp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// 失敗ログ用に保持する診断テキストの上限
const maxDiagnosticKeep = 8192

// IsNotFound は外部ツールが見つからず起動できなかったエラーかどうかを返す
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}

// output はコマンドを実行し、標準出力と診断出力を全量キャプチャする
// メタ情報取得のような短命な呼び出し向け
func output(cmd *exec.Cmd) (stdout, stderr []byte, err error) {
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// stream はコマンドを実行し、両ストリームの行ごとにonLineを呼ぶ
// yt-dlpは進捗行を\rで書き換えるため、\rでも行を区切る
// onLineはストリーム到着順に呼ばれる（ストリームごとに順序保証）
func stream(cmd *exec.Cmd, onLine func(line string)) error {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("setup stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("setup stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	// 失敗時のログ用に末尾を保持
	var mu sync.Mutex
	var diag strings.Builder

	var g errgroup.Group
	for _, r := range []io.Reader{stdoutPipe, stderrPipe} {
		r := r
		g.Go(func() error {
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			scanner.Split(splitByNewlineOrCR)
			for scanner.Scan() {
				line := scanner.Text()
				if line == "" {
					continue
				}
				mu.Lock()
				if diag.Len() < maxDiagnosticKeep {
					diag.WriteString(line)
					diag.WriteByte('\n')
				}
				mu.Unlock()
				if onLine != nil {
					onLine(line)
				}
			}
			return scanner.Err()
		})
	}

	readErr := g.Wait()
	if err := cmd.Wait(); err != nil {
		mu.Lock()
		defer mu.Unlock()
		return fmt.Errorf("%s failed: %w\n%s", cmd.Path, err, strings.TrimSpace(diag.String()))
	}
	return readErr
}

// splitByNewlineOrCR は\nに加えて\rでも行を区切るSplitFunc
func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
