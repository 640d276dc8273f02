//go:build !linux

package imageinfo

import (
	"os"
	"time"
)

func changeTime(fi os.FileInfo) time.Time {
	return fi.ModTime()
}
