package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/semaphore"
)

// Engine 名称
const (
	EngineImaging = "imaging"
	EngineVips    = "vips"
)

// DefaultJPEGQuality 默认输出质量
const DefaultJPEGQuality = 92

// ErrNoDimension 宽高均未设置
var ErrNoDimension = errors.New("transform: width or height must be set")

// Options 单次缩放参数
// Width 和 Height 只设置一个，另一个按比例计算
type Options struct {
	Width     int
	Height    int
	BlurSigma float64
	Quality   int
}

// Validate 校验参数
func (o Options) Validate() error {
	if o.Width < 0 || o.Height < 0 {
		return fmt.Errorf("transform: negative dimension %dx%d", o.Width, o.Height)
	}
	if o.Width == 0 && o.Height == 0 {
		return ErrNoDimension
	}
	if o.BlurSigma < 0 {
		return fmt.Errorf("transform: negative blur sigma %v", o.BlurSigma)
	}
	return nil
}

// Transformer 图片处理引擎
type Transformer interface {
	// Probe 返回按 EXIF 方向校正后的宽高，与 Resize 使用的几何一致
	Probe(ctx context.Context, path string) (width, height int, err error)
	// Resize 缩放 src 并以 JPEG 写入 dst
	Resize(ctx context.Context, src, dst string, opts Options) error
	Name() string
}

// New 按引擎名创建处理器
func New(engine string, quality int) (Transformer, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineImaging:
		return NewImagingTransformer(quality), nil
	case EngineVips:
		return NewVipsTransformer(quality), nil
	default:
		return nil, fmt.Errorf("unsupported transform engine: %s", engine)
	}
}

// IsVips 引擎名是否指向 libvips，忽略大小写
func IsVips(engine string) bool {
	return strings.EqualFold(strings.TrimSpace(engine), EngineVips)
}

// Limited 限制并发解码数量，防止大图同时解码占满内存
type Limited struct {
	Transformer
	sem *semaphore.Weighted
}

// WithLimit 包装处理器，max <= 0 时原样返回
func WithLimit(t Transformer, max int) Transformer {
	if max <= 0 {
		return t
	}
	return &Limited{Transformer: t, sem: semaphore.NewWeighted(int64(max))}
}

// Probe 获取许可后读取尺寸，带方向的探测同样需要解码
func (l *Limited) Probe(ctx context.Context, path string) (int, int, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return 0, 0, fmt.Errorf("acquire transform slot: %w", err)
	}
	defer l.sem.Release(1)

	return l.Transformer.Probe(ctx, path)
}

// Resize 获取许可后执行缩放
func (l *Limited) Resize(ctx context.Context, src, dst string, opts Options) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire transform slot: %w", err)
	}
	defer l.sem.Release(1)

	return l.Transformer.Resize(ctx, src, dst, opts)
}
