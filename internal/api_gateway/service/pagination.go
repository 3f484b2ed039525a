package service

import (
	"errors"
	"fmt"
)

// ErrInvalidPage is returned for pages outside 1..MaxPage or a non-positive page size
var ErrInvalidPage = errors.New("invalid page")

func pageOffset(page, perPage int) (int, error) {
	if page < 1 || page > MaxPage || perPage < 1 {
		return 0, fmt.Errorf("%w: page %d, per page %d", ErrInvalidPage, page, perPage)
	}
	return (page - 1) * perPage, nil
}
