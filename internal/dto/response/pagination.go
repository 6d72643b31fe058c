package response

import "stayhub/pkg/utils"

// PaginatedResponse is the list envelope shared by listings and bookings.
type PaginatedResponse[T any] struct {
	Count      int64          `json:"count"`
	Results    []T            `json:"results"`
	Pagination PaginationMeta `json:"pagination"`
}

type PaginationMeta struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_previous"`
}

func NewPaginatedResponse[T any](results []T, page, perPage int, total int64) *PaginatedResponse[T] {
	if results == nil {
		results = []T{}
	}
	totalPages := utils.CalculateTotalPages(total, perPage)

	return &PaginatedResponse[T]{
		Count:   total,
		Results: results,
		Pagination: PaginationMeta{
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}
}
