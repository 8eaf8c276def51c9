package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddr(t *testing.T) {
	assert.Equal(t, "0.0.0.0:8080", (&Config{}).Addr())
	assert.Equal(t, "127.0.0.1:9000", (&Config{ServerHost: "127.0.0.1", ServerPort: 9000}).Addr())
}

func TestKafkaBrokerList(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		want    []string
	}{
		{"empty", "", nil},
		{"single", "kafka:9092", []string{"kafka:9092"}},
		{"trims and skips blanks", " a:1 , ,b:2,", []string{"a:1", "b:2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{KafkaBrokers: tt.brokers}
			assert.Equal(t, tt.want, c.KafkaBrokerList())
		})
	}
}

func TestMaxSourceBytes(t *testing.T) {
	assert.Equal(t, int64(50*1024*1024), (&Config{}).MaxSourceBytes())
	assert.Equal(t, int64(5*1024*1024), (&Config{MaxSourceSizeMB: 5}).MaxSourceBytes())
}

func TestGetScratchDir(t *testing.T) {
	assert.Equal(t, "/srv/scratch", (&Config{ScratchDir: "/srv/scratch"}).GetScratchDir())
	assert.Equal(t, filepath.Join(os.TempDir(), "image-thumbnailer"), (&Config{}).GetScratchDir())
}

func TestGetWorkerCount(t *testing.T) {
	assert.Equal(t, 3, (&Config{WorkerCount: 3}).GetWorkerCount())
	assert.GreaterOrEqual(t, (&Config{}).GetWorkerCount(), 2)
}
