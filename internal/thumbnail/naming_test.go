package thumbnail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		in       string
		wantBase string
		wantExt  string
	}{
		{"temp_upload/session1/IMG_20.jpg", "IMG_20", "jpg"},
		{"temp_upload/photo.png", "photo", "png"},
		{"temp_upload/x/a.b.c", "b", "c"},
		{"temp_upload/x/photo", "", "photo"},
		{"temp_upload/x/archive.tar.gz", "tar", "gz"},
		{"plain.jpeg", "plain", "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			base, ext := ParseName(tt.in)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestVariantFileNames(t *testing.T) {
	base, _ := ParseName("temp_upload/photo.png")

	var names []string
	for _, v := range Variants() {
		names = append(names, v.FileName(base))
	}

	assert.ElementsMatch(t, []string{"s_photo.jpg", "m_photo.jpg", "l_photo.jpg", "xl_photo.jpg", "bl_photo.jpg"}, names)
}

func TestVariantDimensions(t *testing.T) {
	for _, v := range Variants() {
		w, h := v.Dimensions(true)
		assert.Equal(t, v.Size, w)
		assert.Zero(t, h)

		w, h = v.Dimensions(false)
		assert.Zero(t, w)
		assert.Equal(t, v.Size, h)
	}
}

func TestVariantsOnlyBlurHasSigma(t *testing.T) {
	for _, v := range Variants() {
		if v.Label == "blur" {
			assert.Equal(t, float64(BlurSigma), v.BlurSigma)
			assert.Equal(t, 300, v.Size)
			continue
		}
		assert.Zero(t, v.BlurSigma, v.Label)
	}
}

func TestBuildAccessURL(t *testing.T) {
	got := BuildAccessURL("https://firebasestorage.googleapis.com/", "demo.appspot.com", "images%2Fs_x.jpg", "tok-1")
	assert.Equal(t, "https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/o/images%2Fs_x.jpg?alt=media&token=tok-1", got)

	got = BuildAccessURL("", "b", "o", "")
	assert.Equal(t, DefaultAccessURLBase+"/v0/b/b/o/o?alt=media&token=", got)
}

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "images/IMG_20/small", RecordKey("IMG_20", "small"))
	assert.Len(t, RecordKeys("IMG_20"), 5)
}
