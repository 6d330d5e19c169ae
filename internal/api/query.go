package api

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/store"
)

// Query parameter names accepted by the list endpoint.
const (
	ParamPage        = "page"
	ParamPageSize    = "page_size"
	ParamStatus      = "status"
	ParamPriority    = "priority"
	ParamSearch      = "search"
	ParamOrdering    = "ordering"
	ParamDueDateFrom = "due_date_from"
	ParamDueDateTo   = "due_date_to"
	ParamOverdue     = "overdue"
)

// ParseListFilter converts list query parameters into a normalized filter.
//
// An unparsable page, or one whose offset cannot be represented, is
// reported as ErrInvalidPage. An unparsable page_size
// and an unknown ordering fall back to their defaults. Invalid filter values
// are collected into a single validation error.
func ParseListFilter(q url.Values) (store.ListFilter, error) {
	var (
		f    store.ListFilter
		errs domain.ValidationErrors
	)

	if raw := q.Get(ParamPage); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return store.ListFilter{}, ErrInvalidPage
		}
		f.Page = page
	}

	if raw := q.Get(ParamPageSize); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			f.PageSize = size
		}
	}

	if raw := q.Get(ParamStatus); raw != "" {
		st, err := domain.ParseStatus(raw)
		if err != nil {
			errs.Add(relabel(err, ParamStatus))
		} else {
			f.Status = &st
		}
	}

	if raw := q.Get(ParamPriority); raw != "" {
		p, err := domain.ParsePriority(raw)
		if err != nil {
			errs.Add(relabel(err, ParamPriority))
		} else {
			f.Priority = &p
		}
	}

	f.Search = q.Get(ParamSearch)

	if raw := q.Get(ParamDueDateFrom); raw != "" {
		d, err := domain.ParseDate(raw)
		if err != nil {
			errs.Add(relabel(err, ParamDueDateFrom))
		} else {
			f.DueDateFrom = &d
		}
	}

	if raw := q.Get(ParamDueDateTo); raw != "" {
		d, err := domain.ParseDate(raw)
		if err != nil {
			errs.Add(relabel(err, ParamDueDateTo))
		} else {
			f.DueDateTo = &d
		}
	}

	if raw := q.Get(ParamOverdue); raw != "" {
		overdue, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			errs.Add(domain.NewValidationError(ParamOverdue, "Must be a valid boolean.", domain.ErrInvalidFormat))
		} else {
			f.Overdue = overdue
		}
	}

	f.Ordering = strings.TrimSpace(q.Get(ParamOrdering))
	if f.Ordering != "" {
		if _, _, err := f.OrderBy(); err != nil {
			f.Ordering = ""
		}
	}

	if err := errs.Err(); err != nil {
		return store.ListFilter{}, err
	}
	f = f.Normalize()
	if f.Page > math.MaxInt/f.PageSize {
		return store.ListFilter{}, ErrInvalidPage
	}
	return f, nil
}

// relabel reports a parse failure against the query parameter it came from.
func relabel(err error, field string) *domain.ValidationError {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return domain.NewValidationError(field, ve.Message, ve.Err)
	}
	return domain.NewValidationError(field, "Invalid value.", domain.ErrValidation)
}
