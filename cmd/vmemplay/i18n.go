package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Input":       "入力",
		"Frame Queue": "フレームキュー",
		"Display":     "表示",
		"Output":      "出力先",
		"Logging":     "ログ",

		// Root command
		"Play video into a bounded frame queue and consume it": "動画を固定長フレームキューに再生し、消費します",

		// Commands
		"Play media into the frame queue until it ends or a limit is reached": "メディアを終了または上限に達するまでフレームキューに再生",
		"Control playback from a terminal UI":                                  "ターミナルUIから再生を操作",
		"Show the video track of an MP4 file":                                  "MP4ファイルの映像トラックを表示",
		"Show version information":                                             "バージョン情報を表示",
		"probe needs a file":                                                   "probe にはファイルが必要です",

		// Input flags
		"YAML configuration file":                                          "YAML設定ファイル",
		"Decoder engine (pattern, ffmpeg)":                                 "デコーダエンジン (pattern, ffmpeg)",
		"Pattern frame rate":                                               "テストパターンのフレームレート",
		"Pattern length (0 plays until stopped)":                           "テストパターンの長さ (0 は停止まで再生)",
		"Generate pattern frames as fast as the queue accepts them":        "キューが受け付ける限り高速にフレームを生成",
		"Path to ffmpeg (falls back to FFMPEG_PATH env, then PATH)":        "ffmpeg のパス (未指定時は FFMPEG_PATH 環境変数、次に PATH)",
		"Decode files as fast as possible instead of at their native rate": "ファイルを等速ではなく最大速度でデコード",

		// Queue flags
		"Frame width in pixels (multiple of 4)": "フレーム幅 (ピクセル、4の倍数)",
		"Frame height in pixels":                "フレーム高さ (ピクセル)",
		"Number of frame slots (min: 3)":        "フレームスロット数 (最小: 3)",
		"Slot memory (heap, mmap)":              "スロットのメモリ (heap, mmap)",

		// Display flags
		"Consumer mode (wait, poll)":    "消費モード (wait, poll)",
		"Poll interval in milliseconds": "ポーリング間隔 (ミリ秒)",
		"Stop after this long":          "この時間が経過したら停止",
		"Stop after this many frames":   "このフレーム数で停止",

		// Output flags
		"Frame sink (null, png, record)":          "フレームの出力先 (null, png, record)",
		"Directory for saved frames":              "フレーム画像の保存先ディレクトリ",
		"Save every Nth frame":                    "Nフレームごとに保存",
		"Output MP4 file path for the record sink": "record 出力のMP4ファイルパス",
		"Recording CRF (0-51, lower is better)":   "録画CRF (0-51、低いほど高画質)",
		"Write a session summary (.md or .yaml)":  "セッションのサマリーを出力 (.md または .yaml)",

		// Logging flags
		"Log level (debug, info, warn, error)":         "ログレベル (debug, info, warn, error)",
		"Suppress all log output":                      "すべてのログ出力を抑制",
		"Write logs to this file while the UI is shown": "UI表示中のログをこのファイルに出力",

		// Probe output
		"Title:    %s":           "タイトル: %s",
		"Codec:    %s":           "コーデック: %s",
		"Size:     %dx%d":        "サイズ:   %dx%d",
		"Duration: %s":           "長さ:     %s",
		"Frames:   %d (%.2f fps)": "フレーム: %d (%.2f fps)",

		// Version
		"vmemplay version %s": "vmemplay バージョン %s",

		// Summary labels
		"Playback Summary": "再生サマリー",
		"Generated":        "生成日時",
		"Item":             "項目",
		"Value":            "値",
		"N/A":              "なし",
		"Unknown":          "不明",
		"Media":            "メディア",
		"Title":            "タイトル",
		"Engine":           "エンジン",
		"Frame Size":       "フレームサイズ",
		"Length":           "長さ",
		"Frame Rate":       "フレームレート",
		"Session":          "セッション",
		"Session ID":       "セッションID",
		"End Reason":       "終了理由",
		"Final State":      "最終状態",
		"Elapsed":          "経過時間",
		"Slots":            "スロット",
		"Allocator":        "アロケータ",
		"Published":        "書き込み",
		"Consumed":         "消費",
		"Resets":           "リセット",
		"Mode":             "モード",
		"Frames":           "フレーム数",
		"Display Rate":     "表示レート",
		"Empty Ticks":      "空振り",
		"Sink Errors":      "出力エラー",
		"Sink":             "出力先",
		"Path":             "パス",
		"Files":            "ファイル数",

		// End reasons and states
		"end of stream":  "ストリーム終了",
		"duration limit": "時間上限",
		"frame limit":    "フレーム上限",
		"cancelled":      "キャンセル",
		"engine error":   "エンジンエラー",
		"sink error":     "出力エラー",
		"Playing":        "再生中",
		"Paused":         "一時停止",
		"Ended":          "終了",
		"Error":          "エラー",
	})
}
