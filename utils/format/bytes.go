package format

import "fmt"

var units = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// HumanReadableSize 将字节数转换为 1024 进制的可读格式，如 "1.50 MB"
func HumanReadableSize(bytes int64) string {
	if bytes < 0 {
		return "-" + HumanReadableSize(-bytes)
	}
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}

	size := float64(bytes)
	exp := 0
	for size >= 1024 && exp < len(units)-1 {
		size /= 1024
		exp++
	}
	return fmt.Sprintf("%.2f %s", size, units[exp])
}
