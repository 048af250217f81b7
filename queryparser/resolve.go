package queryparser

import (
	"fmt"
	"strconv"

	"github.com/photowall/engine/store"
)

// Resolve turns a ParsedQuery into store.SearchFilters, applying each
// known field to the predicate it controls. Unknown or malformed field
// values are dropped silently (matching the parser's tolerant philosophy:
// a bad filter degrades the query rather than failing it outright).
func Resolve(pq *ParsedQuery) store.SearchFilters {
	f := store.SearchFilters{
		FTSExpr:  pq.FTSExpr,
		TagNames: pq.TagNames,
	}

	for _, ff := range pq.FieldFilters {
		switch ff.Field {
		case "camera":
			v := ff.Value
			f.CameraModel = &v
		case "lens":
			v := ff.Value
			f.LensModel = &v
		case "path":
			v := ff.Value
			f.PathContains = &v
		case "name":
			v := ff.Value
			f.NameContains = &v
		case "format":
			v := ff.Value
			f.Format = &v
		case "rating":
			applyIntRangeFilter(ff, &f.MinRating, &f.MaxRating, nil)
		case "iso":
			applyIntRangeFilter(ff, &f.MinISO, &f.MaxISO, &f.ISO)
		case "f", "aperture":
			applyFloatRangeFilter(ff, &f.MinAperture, &f.MaxAperture, &f.Aperture)
		case "focal":
			applyFloatRangeFilter(ff, &f.MinFocalLength, &f.MaxFocalLength, &f.FocalLength)
		case "date":
			applyDateFilter(&f, ff)
		}
	}
	return f
}

// applyIntRangeFilter lowers a numeric field filter to a min/max/exact
// pointer on SearchFilters depending on the filter's operator. eq may be
// nil for a field (like rating) that only ever needs a min/max.
func applyIntRangeFilter(ff FieldFilter, min, max, eq **int) {
	n, err := strconv.Atoi(ff.Value)
	if err != nil {
		return
	}
	switch ff.Operator {
	case OpGreaterThan, OpGreaterOrEqual:
		*min = &n
	case OpLessThan, OpLessOrEqual:
		*max = &n
	case OpEquals:
		if eq != nil {
			*eq = &n
		} else {
			*min = &n
		}
	}
}

// applyFloatRangeFilter is applyIntRangeFilter's float counterpart, used
// for aperture and focal length.
func applyFloatRangeFilter(ff FieldFilter, min, max, eq **float64) {
	v, err := strconv.ParseFloat(ff.Value, 64)
	if err != nil {
		return
	}
	switch ff.Operator {
	case OpGreaterThan, OpGreaterOrEqual:
		*min = &v
	case OpLessThan, OpLessOrEqual:
		*max = &v
	case OpEquals:
		*eq = &v
	}
}

// applyDateFilter lowers a date: field filter to a date_taken range on
// SearchFilters. The original query grammar recognizes "date" as a known
// field but never finishes wiring it to a predicate; this resolves that gap.
func applyDateFilter(f *store.SearchFilters, ff FieldFilter) {
	switch ff.Operator {
	case OpGreaterThan, OpGreaterOrEqual:
		v := ff.Value
		f.DateFrom = &v
	case OpLessThan, OpLessOrEqual:
		v := ff.Value
		f.DateTo = &v
	case OpEquals:
		// an exact day: match the whole day's range
		from := ff.Value + "T00:00:00Z"
		to := ff.Value + "T23:59:59Z"
		f.DateFrom = &from
		f.DateTo = &to
	}
}

// String renders a FieldFilter back to its "field:<op><value>" form with no
// space (for example "iso:>800"); OpEquals renders no operator. Useful for
// logging and tests.
func (f FieldFilter) String() string {
	op := ""
	switch f.Operator {
	case OpGreaterThan:
		op = ">"
	case OpLessThan:
		op = "<"
	case OpGreaterOrEqual:
		op = ">="
	case OpLessOrEqual:
		op = "<="
	}
	return fmt.Sprintf("%s:%s%s", f.Field, op, f.Value)
}
