package services

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/fieldtypes"
)

// QueryState is the filter, sort and paging state of a registry request,
// carried forward by every link the listing renders
type QueryState struct {
	fields  []string          // searchable field names in form order
	filters map[string]string // trimmed submitted values, blank included
	Sort    string            // requested sort column; blank when absent or its type is not sortable
	Dir     string            // requested direction; blank when absent or unknown
	Start   int
}

// ParseQueryState reads the request parameters for a model's listing.
// Unknown keys are ignored and malformed values fall back to defaults.
func ParseQueryState(schema *models.ObjectMetadata, params url.Values) *QueryState {
	s := &QueryState{filters: make(map[string]string, len(schema.SearchableFields))}

	for _, sf := range schema.SearchableFields {
		s.fields = append(s.fields, sf.Name)
		s.filters[sf.Name] = strings.TrimSpace(filterParam(params, sf.Name))
	}

	if sortParam := strings.TrimSpace(params.Get(constants.ParamSort)); sortParam != "" {
		if strings.EqualFold(sortParam, constants.FieldID) {
			s.Sort = constants.FieldID
		} else if f := schema.GetField(sortParam); f != nil && fieldtypes.GetRegistry().IsSortable(f.Type) {
			s.Sort = f.APIName
		}
	}
	if dir, ok := constants.NormalizeSortDirection(params.Get(constants.ParamDir)); ok {
		s.Dir = dir
	}
	if start, err := strconv.Atoi(params.Get(constants.ParamStart)); err == nil && start > 0 {
		s.Start = start
	}
	return s
}

// filterParam returns the value submitted for a field. Relation paths are
// also accepted with the dot replaced by an underscore, as some clients
// rewrite dots in parameter names.
func filterParam(params url.Values, name string) string {
	if v, ok := params[name]; ok && len(v) > 0 {
		return v[0]
	}
	if strings.Contains(name, ".") {
		return params.Get(strings.ReplaceAll(name, ".", "_"))
	}
	return ""
}

// Filter returns the submitted value of a searchable field
func (s *QueryState) Filter(name string) string {
	return s.filters[name]
}

// Fields returns the searchable field names in form order
func (s *QueryState) Fields() []string {
	return s.fields
}

// Encode renders the state as a query string: every searchable field
// (blank ones included), Sort, Dir and the filter action. A negative start
// is left out.
func (s *QueryState) Encode(sort, dir string, start int) string {
	var sb strings.Builder
	add := func(k, v string) {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(v))
	}

	for _, name := range s.fields {
		add(name, s.filters[name])
	}
	add(constants.ParamSort, sort)
	add(constants.ParamDir, dir)
	add(constants.ActionFilter, constants.ActionFilterValue)
	if start >= 0 {
		add(constants.ParamStart, strconv.Itoa(start))
	}
	return sb.String()
}

// String encodes the current state without a start offset
func (s *QueryState) String() string {
	return s.Encode(s.Sort, s.Dir, -1)
}

// SortOrder returns the column and direction results are ordered by.
// A requested sort without a direction sorts ascending; without a requested
// sort the model's default applies.
func (s *QueryState) SortOrder(schema *models.ObjectMetadata) (string, string) {
	if s.Sort == "" {
		dir := schema.DefaultDir
		if s.Dir != "" {
			dir = s.Dir
		}
		return schema.DefaultSort, dir
	}
	if s.Dir == "" {
		return s.Sort, constants.SortASC
	}
	return s.Sort, s.Dir
}

// HeaderDir is the direction a column header link requests: DESC when the
// column is the requested sort and it is currently ascending, ASC otherwise.
func (s *QueryState) HeaderDir(column string) string {
	if s.Sort == column && (s.Dir == constants.SortASC || s.Dir == "") {
		return constants.SortDESC
	}
	return constants.SortASC
}
