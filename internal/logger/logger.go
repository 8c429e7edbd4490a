package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup は指定レベルのJSON構造化ログ出力のslog.Loggerを生成して返す。
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// productionがtrueの場合はInfoレベル、それ以外はDebugレベルで出力する。
// 本番ではos.Stdoutを渡すことを想定している。
func SetupDefault(w io.Writer, production bool) {
	if w == nil {
		w = os.Stdout
	}
	level := slog.LevelDebug
	if production {
		level = slog.LevelInfo
	}
	logger := Setup(w, level)
	slog.SetDefault(logger)
}
