package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/store"
)

// Page is one page of a listing.
type Page struct {
	Count    int           `json:"count"`
	Next     *string       `json:"next"`
	Previous *string       `json:"previous"`
	Results  []domain.Task `json:"results"`
}

// NewPage builds the page envelope for r. Links keep every query parameter
// of the request and only change page; the link to the first page omits it.
func NewPage(r *http.Request, filter store.ListFilter, total int, tasks []domain.Task) Page {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	p := Page{Count: total, Results: tasks}
	if filter.Page*filter.PageSize < total {
		next := pageLink(r, filter.Page+1)
		p.Next = &next
	}
	if filter.Page > 1 {
		prev := pageLink(r, filter.Page-1)
		p.Previous = &prev
	}
	return p
}

// pageExists reports whether the requested page has results, treating the
// first page of an empty listing as existing.
func pageExists(filter store.ListFilter, total int) bool {
	return filter.Page == 1 || filter.Offset() < total
}

func pageLink(r *http.Request, page int) string {
	u := url.URL{
		Scheme: requestScheme(r),
		Host:   r.Host,
		Path:   r.URL.Path,
	}
	q := r.URL.Query()
	if page <= 1 {
		q.Del(ParamPage)
	} else {
		q.Set(ParamPage, strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
