package transform

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImagingTransformer 纯 Go 实现，基于 disintegration/imaging
type ImagingTransformer struct {
	quality int
}

// NewImagingTransformer 创建 imaging 引擎
func NewImagingTransformer(quality int) *ImagingTransformer {
	return &ImagingTransformer{quality: quality}
}

func (t *ImagingTransformer) Name() string {
	return EngineImaging
}

// Probe 返回按 EXIF 方向旋转后的尺寸，与 Resize 看到的图片一致
// imaging 不提供单独读取方向的接口，这里走一次完整解码
func (t *ImagingTransformer) Probe(ctx context.Context, path string) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image: %w", err)
	}
	size := img.Bounds().Size()
	return size.X, size.Y, nil
}

// Resize 缩放后按需模糊，写出 JPEG
// 与 convert -resize 一致，小图也会放大到目标尺寸
func (t *ImagingTransformer) Resize(ctx context.Context, src, dst string, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}

	var out image.Image = imaging.Resize(img, opts.Width, opts.Height, imaging.Lanczos)
	if opts.BlurSigma > 0 {
		out = imaging.Blur(out, opts.BlurSigma)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = t.quality
	}
	if err := imaging.Save(out, dst, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("save %s: %w", dst, err)
	}
	return nil
}
