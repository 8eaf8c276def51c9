package thumbnail

import "strings"

// ParseName 从对象路径中拆出基础名和扩展名
// 取最后一个路径段，按 "." 分割后先弹出扩展名，再弹出基础名：
//
//	"temp_upload/a/IMG_20.jpg" -> ("IMG_20", "jpg")
//	"temp_upload/a/a.b.c"      -> ("b", "c")
//	"temp_upload/a/photo"      -> ("", "photo")
func ParseName(objectName string) (baseName, ext string) {
	fileName := objectName
	if i := strings.LastIndexByte(objectName, '/'); i >= 0 {
		fileName = objectName[i+1:]
	}

	parts := strings.Split(fileName, ".")
	ext = parts[len(parts)-1]
	parts = parts[:len(parts)-1]
	if len(parts) > 0 {
		baseName = parts[len(parts)-1]
	}
	return baseName, ext
}

// FileNameOf 返回对象路径的最后一段
func FileNameOf(objectName string) string {
	if i := strings.LastIndexByte(objectName, '/'); i >= 0 {
		return objectName[i+1:]
	}
	return objectName
}
