package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/anoixa/image-thumbnailer/internal/event"
	"github.com/anoixa/image-thumbnailer/internal/transform"
	"github.com/anoixa/image-thumbnailer/metadata"
	"github.com/anoixa/image-thumbnailer/storage"
	"github.com/anoixa/image-thumbnailer/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ObjectStore 编排器需要的对象存储操作
type ObjectStore interface {
	Download(ctx context.Context, bucket, name, dst string) error
	Upload(ctx context.Context, bucket, src, dest string) (*storage.Object, error)
}

// RecordWriter 元数据写入
type RecordWriter interface {
	Set(ctx context.Context, key string, record metadata.Record) error
}

// Options 编排器配置
type Options struct {
	AccessURLBase string
	ScratchRoot   string
}

// Orchestrator 缩略图编排器
// 下载一次源图，探测方向，然后并发生成、上传、登记五个衍生图
type Orchestrator struct {
	objects     ObjectStore
	transformer transform.Transformer
	records     RecordWriter
	opts        Options
}

// New 创建编排器
func New(objects ObjectStore, transformer transform.Transformer, records RecordWriter, opts Options) *Orchestrator {
	if opts.AccessURLBase == "" {
		opts.AccessURLBase = DefaultAccessURLBase
	}
	return &Orchestrator{
		objects:     objects,
		transformer: transformer,
		records:     records,
		opts:        opts,
	}
}

// VariantResult 单个衍生图的处理结果
type VariantResult struct {
	Label    string
	FileName string
	URL      string
	Err      error
}

// Report 单次调用的处理报告，仅用于日志
type Report struct {
	InvocationID string
	Bucket       string
	Object       string
	Skipped      event.SkipReason
	Width        int
	Height       int
	Landscape    bool
	Variants     []VariantResult
	Duration     time.Duration
}

// Failed 返回失败的规格标签
func (r *Report) Failed() []string {
	var labels []string
	for _, v := range r.Variants {
		if v.Err != nil {
			labels = append(labels, v.Label)
		}
	}
	return labels
}

// Handle 处理一个对象变更事件
// 不符合条件的事件直接返回 nil；任一分支失败时返回合并后的错误
func (o *Orchestrator) Handle(ctx context.Context, ev *event.ObjectEvent) error {
	report, err := o.Process(ctx, ev)
	if report != nil && report.Skipped == event.SkipNone {
		logReport(report, err)
	}
	return err
}

// Process 与 Handle 相同，额外返回处理报告
func (o *Orchestrator) Process(ctx context.Context, ev *event.ObjectEvent) (*Report, error) {
	start := time.Now()
	report := &Report{
		InvocationID: uuid.NewString(),
		Bucket:       ev.Bucket,
		Object:       ev.Name,
	}

	if reason := ev.Eligibility(); reason != event.SkipNone {
		report.Skipped = reason
		log.Printf("[Orchestrator] %s (%s)", reason, utils.SanitizeLogPath(ev.Name))
		return report, nil
	}

	baseName, _ := ParseName(ev.Name)
	token := ev.DownloadToken()
	if token == "" {
		log.Printf("[Orchestrator] Object %s has no download token, URLs will not be readable", utils.SanitizeLogPath(ev.Name))
	}

	scratch, err := NewScratch(o.opts.ScratchRoot)
	if err != nil {
		return report, err
	}
	defer scratch.Cleanup()

	srcPath := scratch.Path(FileNameOf(ev.Name))
	if err := o.objects.Download(ctx, ev.Bucket, ev.Name, srcPath); err != nil {
		return report, fmt.Errorf("failed to download %s: %w", ev.Name, err)
	}
	utils.LogIfDevf("[Orchestrator] Image downloaded locally to %s", srcPath)

	width, height, err := o.transformer.Probe(ctx, srcPath)
	if err != nil {
		return report, fmt.Errorf("failed to probe %s: %w", ev.Name, err)
	}
	landscape := width > height
	report.Width, report.Height, report.Landscape = width, height, landscape

	variants := Variants()
	report.Variants = make([]VariantResult, len(variants))
	errs := make([]error, len(variants))

	// 分支之间互不取消，全部结束后统一汇总
	var g errgroup.Group
	for i, spec := range variants {
		i, spec := i, spec
		w, h := spec.Dimensions(landscape)
		g.Go(func() error {
			res := o.runVariant(ctx, ev.Bucket, srcPath, baseName, token, spec, w, h, scratch)
			report.Variants[i] = res
			errs[i] = res.Err
			return res.Err
		})
	}

	if err := g.Wait(); err != nil {
		report.Duration = time.Since(start)
		return report, errors.Join(errs...)
	}

	report.Duration = time.Since(start)
	return report, nil
}

// runVariant 单个分支：resize -> upload -> 写元数据
func (o *Orchestrator) runVariant(
	ctx context.Context,
	bucket, srcPath, baseName, token string,
	spec VariantSpec,
	width, height int,
	scratch *Scratch,
) VariantResult {
	res := VariantResult{Label: spec.Label, FileName: spec.FileName(baseName)}

	dstPath := scratch.Path(res.FileName)
	opts := transform.Options{Width: width, Height: height, BlurSigma: spec.BlurSigma}
	if err := o.transformer.Resize(ctx, srcPath, dstPath, opts); err != nil {
		res.Err = fmt.Errorf("%s: resize failed: %w", spec.Label, err)
		return res
	}

	obj, err := o.objects.Upload(ctx, bucket, dstPath, spec.Destination(baseName))
	if err != nil {
		res.Err = fmt.Errorf("%s: upload failed: %w", spec.Label, err)
		return res
	}

	res.URL = BuildAccessURL(o.opts.AccessURLBase, obj.Bucket, obj.ID(), token)
	if err := o.records.Set(ctx, RecordKey(baseName, spec.Label), metadata.Record{URL: res.URL}); err != nil {
		res.Err = fmt.Errorf("%s: metadata write failed: %w", spec.Label, err)
		return res
	}

	log.Printf("[Orchestrator] %s image created", spec.Label)
	return res
}

func logReport(r *Report, err error) {
	if err != nil {
		if utils.IsInvocationTimeout(err) {
			log.Printf("[Orchestrator] Invocation %s for %s timed out after %v", r.InvocationID, utils.SanitizeLogPath(r.Object), r.Duration)
		}
		log.Printf("[Orchestrator] Invocation %s for %s failed, variants failed: %v, error: %v",
			r.InvocationID, utils.SanitizeLogPath(r.Object), r.Failed(), err)
		return
	}
	log.Printf("[Orchestrator] Invocation %s for %s: all variants completed (%dx%d, landscape=%v) in %v",
		r.InvocationID, utils.SanitizeLogPath(r.Object), r.Width, r.Height, r.Landscape, r.Duration)
}
