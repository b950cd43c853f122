package download

import (
	"log"
	"sync"
	"time"
)

// ジョブ間に挟む待機時間。外部ツールへの負荷を連続させないための間隔
const defaultDrainDelay = 1 * time.Second

// RunFunc は1件のジョブを終端状態まで実行する
type RunFunc func(id string)

// Queue は到着順で1件ずつジョブを実行する直列キュー
// 排水ループはプロセス全体で同時に1つしか走らない
type Queue struct {
	run     RunFunc
	onPanic func(id string, cause any)
	delay   time.Duration

	mu       sync.Mutex
	pending  []string
	draining bool
}

// NewQueue は新しいQueueを作成
// onPanicは実行が予期せずパニックした場合に呼ばれる（ジョブを失敗へ倒す用途）
func NewQueue(run RunFunc, onPanic func(id string, cause any)) *Queue {
	return &Queue{run: run, onPanic: onPanic, delay: defaultDrainDelay}
}

// SetDelay はジョブ間の待機時間を変更する
func (q *Queue) SetDelay(d time.Duration) {
	q.delay = d
}

// Enqueue はジョブIDを待機列の末尾に追加する。ブロックしない
// 排水中でなければ排水を開始する。排水中の場合は追加のみ
func (q *Queue) Enqueue(id string) {
	q.mu.Lock()
	q.pending = append(q.pending, id)
	start := !q.draining
	if start {
		q.draining = true
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}
}

// Len は待機中のジョブ数を返す
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// drain は待機列が空になるまで先頭から1件ずつ実行する
// 1件の失敗で止まらず、必ず次のジョブへ進む
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		id := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.runOne(id)
		time.Sleep(q.delay)
	}
}

// runOne はパニックを回収して排水ループを守る
func (q *Queue) runOne(id string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("job %s panicked: %v", id, r)
			if q.onPanic != nil {
				q.onPanic(id, r)
			}
		}
	}()
	q.run(id)
}
