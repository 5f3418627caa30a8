package media

import (
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// extensions maps each accepted image type to the object-name suffix.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// detect sniffs head and returns the canonical mime type and extension. ok
// is false for anything that is not an accepted image.
func detect(head []byte) (mimeType, ext string, ok bool) {
	detected := mimetype.Detect(head)
	for m := detected; m != nil; m = m.Parent() {
		base := strings.ToLower(strings.SplitN(m.String(), ";", 2)[0])
		if ext, found := extensions[base]; found {
			return base, ext, true
		}
	}
	return detected.String(), "", false
}

func allowedTypes() string {
	list := make([]string, 0, len(extensions))
	for k := range extensions {
		list = append(list, k)
	}
	sort.Strings(list)
	return strings.Join(list, ", ")
}
