package xinval

import "log/slog"

// maxPayloadLog 日志中消息体的最大长度。
const maxPayloadLog = 128

func slogChannel(ch string) slog.Attr { return slog.String("channel", ch) }

func slogPayload(p string) slog.Attr {
	if len(p) > maxPayloadLog {
		p = p[:maxPayloadLog] + "..."
	}
	return slog.String("payload", p)
}
