package agenda

import (
	"slices"

	"agendacal/internal/model"
)

const (
	DefaultPage  = 1
	DefaultLimit = 200
)

// Page is one slice of a filled record sequence.
type Page struct {
	Items []model.ScheduleRecord `json:"items"`
	Total int                    `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

// Paginate returns the page-th run of limit records. A page or limit below 1
// falls back to DefaultPage / DefaultLimit. Total always reports the full
// length of filled, including placeholder days, even when the page is past
// the end and Items is empty.
func Paginate(filled []model.ScheduleRecord, page, limit int) Page {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	res := Page{
		Items: []model.ScheduleRecord{},
		Total: len(filled),
		Page:  page,
		Limit: limit,
	}

	// Compare before multiplying so huge page numbers cannot overflow.
	if page-1 > len(filled)/limit {
		return res
	}
	skip := (page - 1) * limit
	if skip >= len(filled) {
		return res
	}
	end := min(skip+limit, len(filled))
	res.Items = slices.Clone(filled[skip:end])
	return res
}
