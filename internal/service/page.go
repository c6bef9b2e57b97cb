package service

import "github.com/Skotchmaster/storefront/pkg/util"

type Page[T any] struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
	Data  []T   `json:"data"`
}

func newPage[T any](page, limit int, total int64, data []T) *Page[T] {
	return &Page[T]{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: util.TotalPages(total, limit),
		Data:  data,
	}
}

func pageBounds(page, limit int) (int, int, int) {
	if page < 1 {
		page = util.DefaultPage
	}
	offset, limit := util.Calculate(page, limit)
	return page, offset, limit
}
