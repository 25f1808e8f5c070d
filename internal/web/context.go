package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/checkbench/internal/core"
)

// operator returns the X-User of the request, or "anonymous".
func operator(r *http.Request) string {
	if u := core.GetUserFromContext(r.Context()); u != "" {
		return u
	}
	return "anonymous"
}

// ifMatch parses an If-Match header carrying a ledger version. Quotes and a
// weak prefix are accepted; a missing header or "*" means no precondition.
func ifMatch(r *http.Request) (*uint64, error) {
	h := strings.TrimSpace(r.Header.Get("If-Match"))
	if h == "" || h == "*" {
		return nil, nil
	}
	h = strings.TrimPrefix(h, "W/")
	h = strings.Trim(h, `"`)
	v, err := strconv.ParseUint(h, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: If-Match %q is not a ledger version", core.ErrInvalidRequest, r.Header.Get("If-Match"))
	}
	return &v, nil
}

// setVersion exposes the ledger version as an ETag for the next If-Match.
func setVersion(w http.ResponseWriter, v uint64) {
	w.Header().Set("ETag", `"`+strconv.FormatUint(v, 10)+`"`)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	return nil
}

// viewOptions reads filter and sort from the query string:
// q, name, customerNo, source, sort, dir (asc|desc). Without sort the view
// is newest first.
func viewOptions(r *http.Request) (core.ViewOptions, error) {
	q := r.URL.Query()
	opts := core.ViewOptions{
		Filter: core.EntryFilter{
			Search:     q.Get("q"),
			Name:       q.Get("name"),
			CustomerNo: q.Get("customerNo"),
			Source:     core.SourceType(q.Get("source")),
		},
		Sort: core.DefaultSort,
	}
	if opts.Filter.Source != "" && !opts.Filter.Source.Valid() {
		return opts, fmt.Errorf("%w: unknown source %q", core.ErrInvalidRequest, opts.Filter.Source)
	}

	if sort := q.Get("sort"); sort != "" {
		field, ok := core.ParseSortField(sort)
		if !ok {
			return opts, fmt.Errorf("%w: unknown sort field %q", core.ErrInvalidRequest, sort)
		}
		opts.Sort = core.SortSpec{Field: field, Desc: strings.EqualFold(q.Get("dir"), "desc")}
	}
	return opts, nil
}
