package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"otosu/internal/download"
	"otosu/internal/media"
	"otosu/internal/models"
	"otosu/internal/storage"
	"otosu/internal/version"
	"otosu/internal/ytdlp"
)

// DownloadHandler はダウンロードAPIのハンドラー
type DownloadHandler struct {
	svc   *download.Service
	repo  *storage.JobRepository
	tools *ytdlp.Tools
	dir   string
}

// NewDownloadHandler は新しいDownloadHandlerを作成
func NewDownloadHandler(svc *download.Service, repo *storage.JobRepository, tools *ytdlp.Tools, dir string) *DownloadHandler {
	return &DownloadHandler{svc: svc, repo: repo, tools: tools, dir: dir}
}

// createRequest はジョブ投入のリクエストボディ
type createRequest struct {
	URL     string `json:"url"`
	Quality string `json:"quality"`
	Format  string `json:"format"`
}

// Create はジョブを投入する
func (h *DownloadHandler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", "invalid request body")
	}
	if req.URL == "" {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", "url is required")
	}

	quality := models.Quality(req.Quality)
	if !quality.Valid() {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", "unsupported quality: "+req.Quality)
	}
	format := models.Format(req.Format)
	if !format.Valid() {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", "unsupported format: "+req.Format)
	}

	job, err := h.svc.Submit(c.Request().Context(), req.URL, quality, format)
	if err != nil {
		return failureJSON(c, err)
	}
	return c.JSON(http.StatusCreated, job)
}

// Info はダウンロードせずにメタ情報のみを返す
func (h *DownloadHandler) Info(c echo.Context) error {
	url := c.QueryParam("url")
	if url == "" {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", "url is required")
	}

	info, err := h.svc.GetVideoInfo(c.Request().Context(), url)
	if err != nil {
		return failureJSON(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// List はジョブ一覧を新しい順に取得
func (h *DownloadHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	jobs, err := h.repo.ListRecent(ctx, limit)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", err.Error())
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return c.JSON(http.StatusOK, jobs)
}

// Get はジョブを取得
func (h *DownloadHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	job, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", err.Error())
	}
	if job == nil {
		return errorJSON(c, http.StatusNotFound, "not_found", "job not found")
	}
	return c.JSON(http.StatusOK, job)
}

// Delete はジョブを削除し、成果物もあわせて片付ける
// 実行中のジョブは削除しない
func (h *DownloadHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	job, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", err.Error())
	}
	if job == nil {
		return errorJSON(c, http.StatusNotFound, "not_found", "job not found")
	}
	if job.Status == models.StatusDownloading {
		return errorJSON(c, http.StatusConflict, "conflict", "job is currently downloading")
	}

	if _, err := h.repo.Delete(ctx, id); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", err.Error())
	}

	// 成果物の削除はベストエフォート
	_ = media.Remove(media.ArtifactPath(h.dir, job.Filename, string(job.Format)))

	return c.NoContent(http.StatusNoContent)
}

// Health は稼働状態を返す
func (h *DownloadHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    version.Version,
		"queue":      h.svc.Queue().Len(),
		"extractor":  h.tools.ExtractorAvailable(ctx),
		"transcoder": h.tools.TranscoderAvailable(ctx),
	})
}

// failureJSON は分類済みエラーをHTTPステータスに対応付ける
func failureJSON(c echo.Context, err error) error {
	var submitErr *download.SubmitError
	if errors.As(err, &submitErr) {
		status := http.StatusInternalServerError
		switch submitErr.Kind {
		case download.ErrInvalidURL:
			status = http.StatusBadRequest
		case download.ErrToolUnavailable:
			status = http.StatusServiceUnavailable
		case download.ErrUnsupportedAudio:
			status = http.StatusUnprocessableEntity
		}
		return errorJSON(c, status, string(submitErr.Kind), submitErr.Message)
	}

	var infoErr *ytdlp.InfoError
	if errors.As(err, &infoErr) {
		status := http.StatusBadGateway
		switch infoErr.Kind {
		case ytdlp.ErrMissingBinary:
			status = http.StatusServiceUnavailable
		case ytdlp.ErrForbidden, ytdlp.ErrPrivateVideo:
			status = http.StatusForbidden
		case ytdlp.ErrVideoUnavailable:
			status = http.StatusNotFound
		case ytdlp.ErrRegionRestricted:
			status = http.StatusUnavailableForLegalReasons
		}
		return errorJSON(c, status, string(infoErr.Kind), infoErr.Message())
	}

	return errorJSON(c, http.StatusInternalServerError, "internal", err.Error())
}

func errorJSON(c echo.Context, status int, kind, message string) error {
	return c.JSON(status, map[string]string{"kind": kind, "error": message})
}
