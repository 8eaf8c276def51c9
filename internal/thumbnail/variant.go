package thumbnail

import "fmt"

// OutputPrefix 衍生图片存放目录
const OutputPrefix = "images"

// BlurSigma 模糊预览的高斯模糊半径，对应 convert -blur 0x10
const BlurSigma = 10

// VariantSpec 单个衍生图规格
type VariantSpec struct {
	Label     string  // 元数据键中的尺寸标签
	Prefix    string  // 文件名前缀
	Size      int     // 目标边长
	BlurSigma float64 // 0 表示不模糊
}

// Variants 返回固定的五种规格
// 每次返回新切片，调用方可以随意修改
func Variants() []VariantSpec {
	return []VariantSpec{
		{Label: "xlarge", Prefix: "xl_", Size: 960},
		{Label: "large", Prefix: "l_", Size: 800},
		{Label: "medium", Prefix: "m_", Size: 480},
		{Label: "small", Prefix: "s_", Size: 320},
		{Label: "blur", Prefix: "bl_", Size: 300, BlurSigma: BlurSigma},
	}
}

// Dimensions 按方向返回目标宽高，只设置其中一个
func (v VariantSpec) Dimensions(landscape bool) (width, height int) {
	if landscape {
		return v.Size, 0
	}
	return 0, v.Size
}

// FileName 衍生文件名，统一输出 JPEG
func (v VariantSpec) FileName(baseName string) string {
	return v.Prefix + baseName + ".jpg"
}

// Destination 上传目标路径
func (v VariantSpec) Destination(baseName string) string {
	return OutputPrefix + "/" + v.FileName(baseName)
}

// RecordKey 元数据记录键 images/{baseName}/{label}
func RecordKey(baseName, label string) string {
	return fmt.Sprintf("%s/%s/%s", OutputPrefix, baseName, label)
}

// RecordKeys 返回某个基础名下全部规格的记录键，按 Variants 顺序
func RecordKeys(baseName string) map[string]string {
	keys := make(map[string]string)
	for _, v := range Variants() {
		keys[v.Label] = RecordKey(baseName, v.Label)
	}
	return keys
}
