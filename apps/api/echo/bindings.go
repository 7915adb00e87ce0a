package echoapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AhenkERP/studentgradesys/core"
)

var (
	orderingParam = "ordering"
	pageParam     = "page"
	pageSizeParam = "page_size"
)

var errInvalidOrdering = errors.New("invalid ordering field")

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses the comma-separated ordering query param. Ordered fields end up
// in SQL ORDER BY clauses, so anything outside allowed is rejected.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) error {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return nil
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return nil
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !isOrderable(field, allowed) {
			return core.NewValidationError(errInvalidOrdering,
				core.FieldError{Field: orderingParam, Error: errInvalidOrdering.Error()})
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return nil
}

func isOrderable(field string, allowed []string) bool {
	for _, f := range allowed {
		if f == field {
			return true
		}
	}
	return false
}

// Pagination binds the page/page_size query params, clamping page_size to the
// configured maximum.
type Pagination struct {
	Page     int
	PageSize int
}

func (p *Pagination) Bind(ctx echo.Context, conf *core.Config) {
	p.Page = 1
	p.PageSize = conf.PageSize

	if val := ctx.QueryParam(pageParam); val != "" {
		if page, err := strconv.Atoi(val); err == nil && page > 0 {
			p.Page = page
		}
	}
	if val := ctx.QueryParam(pageSizeParam); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			if size > conf.MaxPageSize {
				size = conf.MaxPageSize
			}
			p.PageSize = size
		}
	}
}

func (p Pagination) Limit() int  { return p.PageSize }
func (p Pagination) Offset() int { return (p.Page - 1) * p.PageSize }

// Page is the paginated list response envelope.
type Page struct {
	Count   int         `json:"count"`
	Results interface{} `json:"results"`
}

// Result is the domain success/failure response envelope.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func success(ctx echo.Context, msg string) error {
	return ctx.JSON(http.StatusOK, Result{Success: true, Message: msg})
}

func fail(ctx echo.Context, msg string) error {
	return ctx.JSON(http.StatusOK, Result{Success: false, Message: msg})
}
