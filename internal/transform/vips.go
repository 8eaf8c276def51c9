package transform

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsOnce    sync.Once
	vipsStarted bool
	vipsMu      sync.Mutex
)

// startVips libvips 全局只初始化一次
func startVips() {
	vipsOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelWarning)
		vips.Startup(nil)

		vipsMu.Lock()
		vipsStarted = true
		vipsMu.Unlock()
		log.Println("[Transform] libvips started")
	})
}

// ShutdownVips 进程退出前释放 libvips
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	if vipsStarted {
		vips.Shutdown()
		vipsStarted = false
	}
}

// VipsTransformer 基于 libvips 的引擎，大图更快、内存占用更低
type VipsTransformer struct {
	quality int
}

// NewVipsTransformer 创建 vips 引擎
func NewVipsTransformer(quality int) *VipsTransformer {
	startVips()
	return &VipsTransformer{quality: quality}
}

func (t *VipsTransformer) Name() string {
	return EngineVips
}

// Probe vips 延迟解码，这里只读取头信息
// EXIF 方向 5-8 时宽高互换，与 Resize 中 AutoRotate 的结果一致
func (t *VipsTransformer) Probe(ctx context.Context, path string) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	img, err := vips.NewImageFromFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("load image: %w", err)
	}
	defer img.Close()

	w, h := orientedSize(img.Width(), img.Height(), img.Orientation())
	return w, h, nil
}

// orientedSize 方向 5-8 表示图片需要旋转 90 度
func orientedSize(width, height, orientation int) (int, int) {
	if orientation >= 5 && orientation <= 8 {
		return height, width
	}
	return width, height
}

func (t *VipsTransformer) Resize(ctx context.Context, src, dst string, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := vips.NewImageFromFile(src)
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	defer img.Close()

	if err := img.AutoRotate(); err != nil {
		return fmt.Errorf("auto rotate: %w", err)
	}

	scale := scaleFor(img.Width(), img.Height(), opts)
	if err := img.Resize(scale, vips.KernelLanczos3); err != nil {
		return fmt.Errorf("resize: %w", err)
	}

	if opts.BlurSigma > 0 {
		if err := img.GaussianBlur(opts.BlurSigma); err != nil {
			return fmt.Errorf("blur: %w", err)
		}
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = t.quality
	}
	buf, _, err := img.ExportJpeg(&vips.JpegExportParams{
		Quality:       quality,
		StripMetadata: true,
	})
	if err != nil {
		return fmt.Errorf("export jpeg: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(dst, buf, 0o644)
}

// scaleFor 按设置的边计算缩放比例
func scaleFor(width, height int, opts Options) float64 {
	if opts.Width > 0 && width > 0 {
		return float64(opts.Width) / float64(width)
	}
	if height > 0 {
		return float64(opts.Height) / float64(height)
	}
	return 1
}
