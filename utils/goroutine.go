package utils

import (
	"log"
	"runtime/debug"
)

// SafeGo 在新协程中运行 fn，panic 会被记录而不是终止进程
// 开发版本额外打印堆栈
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[SafeGo] %s panic recovered: %v", name, r)
				LogIfDevf("[SafeGo] %s stack:\n%s", name, debug.Stack())
			}
		}()
		fn()
	}()
}
