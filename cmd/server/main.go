package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"otosu/internal/download"
	"otosu/internal/handlers"
	"otosu/internal/media"
	"otosu/internal/storage"
	"otosu/internal/version"
	"otosu/internal/ytdlp"
)

func main() {
	// .envファイルを読み込み（存在しない場合はスキップ）
	_ = godotenv.Load()

	port := getenv("PORT", "8080")
	dbPath := getenv("OTOSU_DB", "data/otosu.db")
	downloadsDir := getenv("OTOSU_DOWNLOADS_DIR", "downloads")

	// データベース接続
	db, err := storage.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// ダウンロード先の用意
	if err := media.EnsureDir(downloadsDir); err != nil {
		log.Fatalf("failed to create downloads directory: %v", err)
	}

	// 外部ツールとサービスの組み立て
	tools := ytdlp.NewTools(os.Getenv("OTOSU_YTDLP"), os.Getenv("OTOSU_FFMPEG"))
	client := ytdlp.NewClient(tools.Extractor())
	repo := storage.NewJobRepository(db)
	svc := download.NewService(repo, client, tools, downloadsDir)
	h := handlers.NewDownloadHandler(svc, repo, tools, downloadsDir)

	// Echoインスタンスの作成
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// ルートの登録
	e.GET("/health", h.Health)
	e.GET("/api/info", h.Info)
	e.POST("/api/downloads", h.Create)
	e.GET("/api/downloads", h.List)
	e.GET("/api/downloads/:id", h.Get)
	e.DELETE("/api/downloads/:id", h.Delete)

	// サーバー起動
	log.Printf("Starting otosu v%s on port %s", version.Version, port)
	if err := e.Start(fmt.Sprintf(":%s", port)); err != nil {
		log.Fatal(err)
	}
}

// getenv は環境変数を取得し、未設定の場合はデフォルト値を返す
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
