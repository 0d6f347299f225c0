package fakebackend

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/saas-admin-client/apiclient"
)

const defaultLimit = 10

// paginate slices items according to the page and limit query parameters
func paginate[T any](r *http.Request, items []T) apiclient.Page[T] {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", defaultLimit)

	total := len(items)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	return apiclient.Page[T]{
		Data:       append([]T{}, items[start:end]...),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
