package repositories

import (
	"context"
	"fmt"
	"os"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/repositories/mappers"
)

// FileCatalogSource 从本地 JSON 文件加载目录，主要用于本地开发与演示数据。
type FileCatalogSource struct {
	path string
}

// NewFileCatalogSource 构造文件目录源。
func NewFileCatalogSource(path string) *FileCatalogSource {
	return &FileCatalogSource{path: path}
}

// Name 返回来源标识。
func (s *FileCatalogSource) Name() string {
	return "file:" + s.path
}

// Load 读取并解析目录文件。
func (s *FileCatalogSource) Load(_ context.Context) (*po.CatalogSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return mappers.DecodeCatalog(data)
}

var _ CatalogSource = (*FileCatalogSource)(nil)
