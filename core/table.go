package core

import (
	"math"
	"reflect"
	"sort"
	"strings"
	"time"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Ordering is one "?ordering=" entry: "-apellido" sorts by apellido descending.
type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrdering parses a comma separated list of fields, each optionally prefixed with "-".
func ParseOrdering(val string) []Ordering {
	var orderings []Ordering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, Ordering{Field: field, Ascending: !descending})
	}
	return orderings
}

// OrderSlice stable-sorts slice by orderings. value returns the value of field for
// the i-th element, or nil when the field is unknown (unknown fields are ignored).
func OrderSlice(slice interface{}, orderings []Ordering, value func(i int, field string) interface{}) {
	if len(orderings) == 0 {
		return
	}
	sort.SliceStable(slice, func(i, j int) bool {
		for _, ord := range orderings {
			c := CompareValues(value(i, ord.Field), value(j, ord.Field))
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

// CompareValues compares two values of the same kind: strings (accent insensitive),
// numbers, bools (false first), time.Time and Date. Anything else compares equal.
func CompareValues(a, b interface{}) int {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return strings.Compare(Fold(av), Fold(bv))
	case bool:
		bv, _ := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case time.Time:
		bv, _ := b.(time.Time)
		return compareTimes(av, bv)
	case Date:
		bv, _ := b.(Date)
		return compareTimes(av.Time, bv.Time)
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !ra.IsValid() || !rb.IsValid() || ra.Kind() != rb.Kind() {
		return 0
	}
	switch ra.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return compareFloats(float64(ra.Int()), float64(rb.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return compareFloats(float64(ra.Uint()), float64(rb.Uint()))
	case reflect.Float32, reflect.Float64:
		return compareFloats(ra.Float(), rb.Float())
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// Page is the "?page=&page_size=" pair of a table. Page numbers start at 1.
type Page struct {
	Number int `query:"page"`
	Size   int `query:"page_size"`
}

// Clean applies the defaults and limits.
func (p *Page) Clean() {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
}

// Offset is the number of rows before the page, saturated at math.MaxInt.
func (p Page) Offset() int {
	p.Clean()
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// Bounds returns the [start, end) slice bounds of the page within n rows.
func (p Page) Bounds(n int) (int, int) {
	p.Clean()
	start := p.Offset()
	if start > n {
		start = n
	}
	end := start + p.Size
	if end > n {
		end = n
	}
	return start, end
}

// Paged is the envelope of a paginated table.
type Paged struct {
	Count    int         `json:"count"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Results  interface{} `json:"results"`
}
