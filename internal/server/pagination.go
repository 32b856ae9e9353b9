package server

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
)

// page is the list response envelope.
type page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// pageParams reads limit and offset. Invalid values fall back to the
// defaults, the limit is capped at MaxPageSize and the offset is kept far
// enough from math.MaxInt that offset+limit cannot overflow.
func (s *Server) pageParams(r *http.Request) (limit, offset int) {
	q := r.URL.Query()

	limit = s.cfg.DefaultPageSize
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = min(v, s.cfg.MaxPageSize)
	}

	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = min(v, math.MaxInt-s.cfg.MaxPageSize)
	}

	return limit, offset
}

func newPage[T any](r *http.Request, results []T, count, limit, offset int) page[T] {
	p := page[T]{
		Count:   count,
		Results: results,
	}
	if p.Results == nil {
		p.Results = []T{}
	}

	if offset < count-limit {
		next := pageURL(r, limit, offset+limit)
		p.Next = &next
	}

	if offset > 0 {
		prev := pageURL(r, limit, max(offset-limit, 0))
		p.Previous = &prev
	}

	return p
}

// pageURL builds an absolute link to another page of the same listing,
// keeping every other query parameter.
func pageURL(r *http.Request, limit, offset int) string {
	q := r.URL.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}

	u := url.URL{
		Scheme:   requestScheme(r),
		Host:     requestHost(r),
		Path:     r.URL.Path,
		RawQuery: q.Encode(),
	}

	return u.String()
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func requestHost(r *http.Request) string {
	if host := r.Header.Get("X-Forwarded-Host"); host != "" {
		return host
	}
	return r.Host
}
