package utils

import (
	"log"
	"strings"
	"unicode"

	"github.com/anoixa/image-thumbnailer/config"
)

// LogIfDevf 仅在开发环境输出日志
func LogIfDevf(format string, args ...interface{}) {
	if config.IsDevelopment() {
		log.Printf(format, args...)
	}
}

func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == 10 || r == 9 {
			sb.WriteRune(r)
		} else if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeLogPath 截断并清理对象路径，避免日志注入
func SanitizeLogPath(path string) string {
	if len(path) > 200 {
		path = path[:200] + "..."
	}
	return SanitizeLogMessage(path)
}
