package ranking

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

const day = 24 * time.Hour

// folder 负责大小写折叠。cases.Caser 非并发安全，每次调用新建。
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

func (f *folder) fold(s string) string {
	return f.caser.String(s)
}

// containsFolded 判断 s 折叠后是否包含已折叠的 needle。
func (f *folder) containsFolded(s, foldedNeedle string) bool {
	return strings.Contains(f.fold(s), foldedNeedle)
}

// daysSince 计算 createdAt 至 now 经过的整天数（向下取整），未来时间视为第 0 天。
func daysSince(createdAt, now time.Time) int64 {
	elapsed := now.Sub(createdAt)
	if elapsed <= 0 {
		return 0
	}
	return int64(elapsed / day)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
