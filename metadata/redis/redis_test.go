package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyPrefix(t *testing.T) {
	s := &Store{prefix: "thumbs:"}
	assert.Equal(t, "thumbs:images/IMG_20/small", s.key("images/IMG_20/small"))

	s = &Store{}
	assert.Equal(t, "images/IMG_20/small", s.key("images/IMG_20/small"))
}

func TestNew_Unreachable(t *testing.T) {
	_, err := New(Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
