package download

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"otosu/internal/media"
	"otosu/internal/models"
	"otosu/internal/ytdlp"
)

// Runner は1件のジョブをpendingから終端状態まで駆動する
type Runner struct {
	store  Store
	client *ytdlp.Client
	tools  *ytdlp.Tools
	dir    string
}

// NewRunner は新しいRunnerを作成
func NewRunner(store Store, client *ytdlp.Client, tools *ytdlp.Tools, dir string) *Runner {
	return &Runner{store: store, client: client, tools: tools, dir: dir}
}

// Run はジョブを実行する。結果は必ずcompletedかfailedになる
func (r *Runner) Run(id string) {
	ctx := context.Background()

	job, err := r.store.GetByID(ctx, id)
	if err != nil {
		log.Printf("job %s: load failed: %v", id, err)
		return
	}
	if job == nil || job.Status.IsTerminal() {
		return
	}

	// pending → downloading。進捗は0から
	r.transition(ctx, id, models.JobUpdate{
		Status:   statusPtr(models.StatusDownloading),
		Progress: intPtr(0),
	})

	// 実行直前の可用性確認
	if !r.tools.ExtractorAvailable(ctx) {
		log.Printf("job %s: extractor tool is missing or still initializing", id)
		r.fail(ctx, id)
		return
	}
	if job.Format.IsAudio() && !r.tools.TranscoderAvailable(ctx) {
		log.Printf("job %s: audio output requires the transcoder tool", id)
		r.fail(ctx, id)
		return
	}

	// サイズ見積もりは切り離して実行する。失敗してもジョブには影響しない
	go r.estimateSize(job)

	applier := newProgressApplier(r.store, id)
	opts := ytdlp.DownloadOptions{
		URL:        job.URL,
		Quality:    job.Quality,
		Format:     job.Format,
		OutputPath: filepath.Join(r.dir, job.Filename),
	}
	err = r.client.Download(ctx, opts, applier.Handle)
	applier.Close()

	if err != nil {
		// 診断テキストはログにのみ残す。レコードには露出させない
		log.Printf("job %s: download failed: %v", id, err)
		r.fail(ctx, id)
		return
	}
	r.complete(ctx, job)
}

// complete はdownloading→completedの遷移
// 進捗は100に固定し、完了時刻と成果物の実サイズを記録する
func (r *Runner) complete(ctx context.Context, job *models.Job) {
	now := time.Now()
	u := models.JobUpdate{
		Status:      statusPtr(models.StatusCompleted),
		Progress:    intPtr(100),
		CompletedAt: &now,
	}
	path := media.ArtifactPath(r.dir, job.Filename, string(job.Format))
	if sz := media.FileSize(path); sz > 0 {
		u.Size = &sz
	}
	r.transition(ctx, job.ID, u)
	log.Printf("job %s completed", job.ID)
}

// fail はfailedへの遷移。完了時刻は設定しない
func (r *Runner) fail(ctx context.Context, id string) {
	r.transition(ctx, id, models.JobUpdate{Status: statusPtr(models.StatusFailed)})
}

// transition は状態遷移を永続化する。書き込み失敗はジョブを中断させない
func (r *Runner) transition(ctx context.Context, id string, u models.JobUpdate) {
	if _, err := r.store.Update(ctx, id, u); err != nil {
		log.Printf("job %s: persist transition failed: %v", id, err)
	}
}

// estimateSize は成果物サイズの見積もりを書き込む
// ダウンロード中のジョブにのみ適用し、実サイズが入った後は触らない
func (r *Runner) estimateSize(job *models.Job) {
	ctx := context.Background()
	sz := r.client.EstimateSize(ctx, job.URL, job.Quality, job.Format)
	if sz <= 0 {
		return
	}

	current, err := r.store.GetByID(ctx, job.ID)
	if err != nil || current == nil {
		return
	}
	if current.Status != models.StatusDownloading || current.Size > 0 {
		return
	}
	if _, err := r.store.Update(ctx, job.ID, models.JobUpdate{Size: &sz}); err != nil {
		log.Printf("job %s: persist size estimate failed: %v", job.ID, err)
	}
}

// progressApplier は進捗シグナルをストリーム読み取りを塞がずに適用する
// 適用が追いつかない間のシグナルは捨てる。進捗率は単調なので損失は許容できる
type progressApplier struct {
	store Store
	id    string

	ch   chan ytdlp.Progress
	done chan struct{}

	lastPercent int
	lastRate    string
	lastETA     string
}

func newProgressApplier(store Store, id string) *progressApplier {
	a := &progressApplier{
		store:       store,
		id:          id,
		ch:          make(chan ytdlp.Progress, 64),
		done:        make(chan struct{}),
		lastPercent: -1,
	}
	go a.loop()
	return a
}

// Handle は診断行を解析し、シグナルを適用キューへ渡す。ブロックしない
func (a *progressApplier) Handle(line string) {
	p := ytdlp.ParseProgress(line)
	if p.Empty() {
		return
	}
	select {
	case a.ch <- p:
	default:
	}
}

// Close は残りのシグナルを適用しきってから戻る
func (a *progressApplier) Close() {
	close(a.ch)
	<-a.done
}

func (a *progressApplier) loop() {
	defer close(a.done)
	for p := range a.ch {
		a.apply(p)
	}
}

// apply は変化のあったフィールドだけを書き込む
// 進捗率は単調非減少で、同値の再書き込みは抑制する
func (a *progressApplier) apply(p ytdlp.Progress) {
	var u models.JobUpdate

	if p.HasPercent {
		pct := p.Percent
		if pct > 100 {
			pct = 100
		}
		if pct > a.lastPercent {
			u.Progress = &pct
			a.lastPercent = pct
		}
	}
	if p.Rate != "" && p.Rate != a.lastRate {
		u.Speed = &p.Rate
		a.lastRate = p.Rate
	}
	if p.ETA != "" && p.ETA != a.lastETA {
		u.ETA = &p.ETA
		a.lastETA = p.ETA
	}
	if u.Progress == nil && u.Speed == nil && u.ETA == nil {
		return
	}

	if _, err := a.store.Update(context.Background(), a.id, u); err != nil {
		log.Printf("job %s: persist progress failed: %v", a.id, err)
	}
}

func statusPtr(s models.Status) *models.Status { return &s }
func intPtr(v int) *int                        { return &v }
