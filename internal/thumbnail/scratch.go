package thumbnail

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Scratch 单次调用的临时目录
type Scratch struct {
	Dir string
}

// NewScratch 在 root 下创建 {uuid} 目录
func NewScratch(root string) (*Scratch, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	return &Scratch{Dir: dir}, nil
}

// Path 返回临时目录内的文件路径，只保留文件名部分
func (s *Scratch) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}

// Cleanup 删除整个临时目录
func (s *Scratch) Cleanup() {
	if err := os.RemoveAll(s.Dir); err != nil {
		log.Printf("[Scratch] Failed to remove %s: %v", s.Dir, err)
	}
}

// CleanStale 删除 root 下修改时间早于 maxAge 的临时目录
// 超时被杀掉的 worker 不会执行 defer，残留目录靠这里回收
func CleanStale(root string, maxAge time.Duration, dryRun bool) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read scratch root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	var removed []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		if !dryRun {
			if err := os.RemoveAll(dir); err != nil {
				log.Printf("[Scratch] Failed to remove stale dir %s: %v", dir, err)
				continue
			}
		}
		removed = append(removed, dir)
	}
	return removed, nil
}
