package download

import (
	"context"
	"log"

	"github.com/kkdai/youtube/v2"

	"otosu/internal/media"
	"otosu/internal/models"
	"otosu/internal/ytdlp"
)

// Service はダウンロード投入と参照の単一窓口
type Service struct {
	store  Store
	client *ytdlp.Client
	tools  *ytdlp.Tools
	queue  *Queue
	dir    string
}

// NewService は新しいServiceを作成し、直列キューを起動可能な状態にする
func NewService(store Store, client *ytdlp.Client, tools *ytdlp.Tools, dir string) *Service {
	s := &Service{store: store, client: client, tools: tools, dir: dir}
	runner := NewRunner(store, client, tools, dir)
	s.queue = NewQueue(runner.Run, s.forceFail)
	return s
}

// Queue は内部の直列キューを返す（待機数の参照用）
func (s *Service) Queue() *Queue {
	return s.queue
}

// GetVideoInfo はダウンロードせずにメタ情報のみを取得する
func (s *Service) GetVideoInfo(ctx context.Context, url string) (*ytdlp.VideoInfo, error) {
	if _, err := youtube.ExtractVideoID(url); err != nil {
		return nil, &SubmitError{Kind: ErrInvalidURL, Message: "not a recognized video URL"}
	}
	if !s.tools.ExtractorAvailable(ctx) {
		return nil, &SubmitError{Kind: ErrToolUnavailable, Message: "download tools are initializing or missing"}
	}
	return s.client.FetchInfo(ctx, url)
}

// Submit はジョブを作成して直列キューに積む
// メタ情報取得と事前条件の確認までは同期で行い、レコード作成前に失敗を返す。
// 作成したジョブはpendingのまま即座に返り、実行はキューが順に進める
func (s *Service) Submit(ctx context.Context, url string, quality models.Quality, format models.Format) (*models.Job, error) {
	videoID, err := youtube.ExtractVideoID(url)
	if err != nil {
		return nil, &SubmitError{Kind: ErrInvalidURL, Message: "not a recognized video URL"}
	}

	if !s.tools.ExtractorAvailable(ctx) {
		return nil, &SubmitError{Kind: ErrToolUnavailable, Message: "download tools are initializing or missing"}
	}
	if format.IsAudio() && !s.tools.TranscoderAvailable(ctx) {
		return nil, &SubmitError{Kind: ErrUnsupportedAudio, Message: "audio output requires ffmpeg"}
	}

	info, err := s.client.FetchInfo(ctx, url)
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		URL:       url,
		VideoID:   videoID,
		Title:     info.Title,
		Thumbnail: info.Thumbnail,
		Duration:  info.Duration,
		Channel:   info.Channel,
		Views:     info.Views,
		Quality:   quality,
		Format:    format,
		Filename:  media.SanitizeFilename(info.Title),
		Status:    models.StatusPending,
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, err
	}

	s.queue.Enqueue(job.ID)
	log.Printf("job %s submitted (%s %s, %s)", job.ID, job.Quality, job.Format, job.VideoID)
	return job, nil
}

// forceFail は排水ループがパニックを回収した場合の最終手段
func (s *Service) forceFail(id string, cause any) {
	st := models.StatusFailed
	if _, err := s.store.Update(context.Background(), id, models.JobUpdate{Status: &st}); err != nil {
		log.Printf("job %s: force fail failed: %v", id, err)
	}
}
