package po

import (
	"slices"
	"time"
)

// CatalogSnapshot 是某一时刻目录的不可变视图。
//
// Version 作为快照标识：每次发布新快照都会递增。
// ContentVersion 只在内容集合或非计数器字段变化时递增，计数器变更不影响它。
type CatalogSnapshot struct {
	Version        uint64        `json:"version"`
	ContentVersion uint64        `json:"content_version"`
	Items          []ContentItem `json:"items"`
	Courses        []Course      `json:"courses"`
	LoadedAt       time.Time     `json:"loaded_at"`
}

// SameContent 判断两组内容与课程是否一致（忽略互动计数器）。
func SameContent(aItems, bItems []ContentItem, aCourses, bCourses []Course) bool {
	return slices.EqualFunc(aItems, bItems, ContentItem.SameContent) &&
		slices.EqualFunc(aCourses, bCourses, Course.Equal)
}

// SameCounters 判断两组等长内容的计数器是否一致。
func SameCounters(a, b []ContentItem) bool {
	return slices.EqualFunc(a, b, func(x, y ContentItem) bool {
		return x.Likes == y.Likes && x.Views == y.Views && x.Comments == y.Comments
	})
}

// FindItem 按 ID 查找内容，返回其在快照中的下标。
func (s *CatalogSnapshot) FindItem(id string) (ContentItem, int, bool) {
	if s == nil {
		return ContentItem{}, -1, false
	}
	for i := range s.Items {
		if s.Items[i].ID == id {
			return s.Items[i], i, true
		}
	}
	return ContentItem{}, -1, false
}

// FindCourse 按 ID 查找课程。
func (s *CatalogSnapshot) FindCourse(id string) (Course, bool) {
	if s == nil {
		return Course{}, false
	}
	for _, c := range s.Courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}
