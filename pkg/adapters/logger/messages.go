package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Session level messages (info)
		"Starting session for %s":              "%s のセッションを開始します",
		"Session ended (%s) after %d frames":   "セッション終了 (%s): %d フレーム",
		"Duration limit reached":               "再生時間の上限に達しました",
		"Displayed %d frames in %s (%.1f fps)": "%d フレームを %s で表示しました (%.1f fps)",
		"Summary saved to %s":                  "サマリーを %s に保存しました",
		"Interrupted, shutting down...":        "中断されました。シャットダウン中...",

		// Frame queue
		"Frame queue created: %d slots of %d bytes":         "フレームキュー作成: %d スロット × %d バイト",
		"Queue full, producer waiting (write %d, read %d)":  "キューが満杯のため書き込み待機中 (書込 %d, 読込 %d)",
		"Stop requested, waiters signalled":                 "停止要求: 待機中のスレッドに通知しました",
		"Stop requested while queue busy, signalling without lock": "キュー使用中に停止要求: ロックなしで通知します",
		"Frame queue closed":                                "フレームキューを閉じました",

		// Player
		"Player ready: %dx%d, %d slots": "プレーヤー準備完了: %dx%d, %d スロット",
		"Playing %s (session %s)":       "%s を再生中 (セッション %s)",
		"Stopped":                       "停止しました",

		// Engines
		"Generating %s at %.2f fps":     "%s を %.2f fps で生成中",
		"Started ffmpeg for %s at %s":   "%s の ffmpeg を %s から開始しました",
		"End of stream after %d frames": "%d フレームでストリーム終了",

		// Display loop
		"Display loop started in %s mode":                 "表示ループを %s モードで開始しました",
		"Display loop finished: %d frames, %d empty ticks": "表示ループ終了: %d フレーム, 空振り %d 回",

		// Warnings
		"Could not probe %s: %s":     "%s を解析できませんでした: %s",
		"Sink rejected frame %d: %s": "出力先がフレーム %d を拒否しました: %s",
		"Failed to stop player: %s":  "プレーヤーの停止に失敗しました: %s",

		// Errors
		"Engine reported an error":     "エンジンがエラーを報告しました",
		"ffmpeg failed: %s":            "ffmpeg が失敗しました: %s",
		"Failed to free slot %d: %s":   "スロット %d の解放に失敗しました: %s",
		"Failed to open sink: %s":      "出力先を開けませんでした: %s",
		"Failed to close sink: %s":     "出力先を閉じられませんでした: %s",
		"Failed to write summary: %s":  "サマリーの書き込みに失敗しました: %s",
	})
}
