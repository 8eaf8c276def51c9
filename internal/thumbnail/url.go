package thumbnail

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultAccessURLBase 默认访问域名
const DefaultAccessURLBase = "https://firebasestorage.googleapis.com"

// BuildAccessURL 拼接公开访问地址
// objectID 必须已经是路径转义后的对象名，例如 images%2Fs_x.jpg
func BuildAccessURL(base, bucket, objectID, token string) string {
	if base == "" {
		base = DefaultAccessURLBase
	}
	return fmt.Sprintf("%s/v0/b/%s/o/%s?alt=media&token=%s",
		strings.TrimRight(base, "/"), bucket, objectID, url.QueryEscape(token))
}
