package source

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/anoixa/image-thumbnailer/internal/event"
	"github.com/anoixa/image-thumbnailer/utils"
	"github.com/segmentio/kafka-go"
)

// MessageReader kafka.Reader 的子集
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig Kafka 消费配置
type KafkaConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	MaxInFlight int
}

// KafkaSource 从 Kafka 主题消费对象事件
// 消息按拉取顺序提交，处理完成之前不会提交后面的 offset
type KafkaSource struct {
	reader      MessageReader
	dispatcher  *Dispatcher
	maxInFlight int
	retryDelay  time.Duration
}

// NewKafkaSource 创建 Kafka 事件源
func NewKafkaSource(cfg KafkaConfig, dispatcher *Dispatcher) *KafkaSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return NewKafkaSourceWithReader(reader, dispatcher, cfg.MaxInFlight)
}

// NewKafkaSourceWithReader 使用已有 reader 创建事件源
func NewKafkaSourceWithReader(reader MessageReader, dispatcher *Dispatcher, maxInFlight int) *KafkaSource {
	if maxInFlight <= 0 {
		maxInFlight = 64
	}
	return &KafkaSource{
		reader:      reader,
		dispatcher:  dispatcher,
		maxInFlight: maxInFlight,
		retryDelay:  time.Second,
	}
}

type pendingMessage struct {
	msg    kafka.Message
	done   chan struct{}
	commit bool
}

// Run 消费直到 ctx 取消，返回前等待已投递的消息处理并提交
func (s *KafkaSource) Run(ctx context.Context) error {
	pending := make(chan *pendingMessage, s.maxInFlight)
	committed := make(chan struct{})
	go func() {
		defer close(committed)
		s.commitLoop(pending)
	}()

	defer func() {
		close(pending)
		<-committed
		if err := s.reader.Close(); err != nil {
			log.Printf("[KafkaSource] Failed to close reader: %v", err)
		}
		log.Println("[KafkaSource] Stopped")
	}()

	log.Println("[KafkaSource] Started")
	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || utils.IsContextCanceled(err) {
				return nil
			}
			log.Printf("[KafkaSource] Error fetching message: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.retryDelay):
			}
			continue
		}

		p := &pendingMessage{msg: msg, done: make(chan struct{}), commit: true}
		pending <- p

		ev, err := event.Decode(msg.Value)
		if err != nil {
			// 无法解析的消息直接提交，避免阻塞分区
			log.Printf("[KafkaSource] Skipping undecodable message at %s/%d@%d: %v", msg.Topic, msg.Partition, msg.Offset, err)
			close(p.done)
			continue
		}

		ok := s.dispatcher.Dispatch(ev, func(error) {
			close(p.done)
		})
		if !ok {
			p.commit = false
			close(p.done)
			return errors.New("worker pool stopped")
		}
	}
}

// commitLoop 按顺序等待处理完成后提交
func (s *KafkaSource) commitLoop(pending <-chan *pendingMessage) {
	for p := range pending {
		<-p.done
		if !p.commit {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.reader.CommitMessages(ctx, p.msg)
		cancel()
		if err != nil {
			log.Printf("[KafkaSource] Failed to commit offset %d on partition %d: %v", p.msg.Offset, p.msg.Partition, err)
		}
	}
}
