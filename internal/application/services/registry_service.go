package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/internal/infrastructure/persistence"
	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/errors"
	"github.com/nexuscrm/registry/pkg/expression"
	"github.com/nexuscrm/registry/pkg/fieldtypes"
	"github.com/nexuscrm/registry/pkg/query"
)

// RegistryService answers listing, export and detail requests of registry pages
type RegistryService struct {
	metadata     *MetadataService
	records      *persistence.RecordRepository
	engine       *expression.Engine
	log          *zap.Logger
	exportPrefix string
	now          func() time.Time
}

// NewRegistryService creates a RegistryService
func NewRegistryService(metadata *MetadataService, records *persistence.RecordRepository, engine *expression.Engine, exportPrefix string, log *zap.Logger) *RegistryService {
	if exportPrefix == "" {
		exportPrefix = constants.DefaultExportPrefix
	}
	return &RegistryService{
		metadata:     metadata,
		records:      records,
		engine:       engine,
		log:          log,
		exportPrefix: exportPrefix,
		now:          time.Now,
	}
}

// schemaFor returns the model a page lists. A page naming an unknown model
// is a configuration fault, not a missing resource.
func (s *RegistryService) schemaFor(page *models.RegistryPage) (*models.ObjectMetadata, error) {
	schema, err := s.metadata.GetSchemaOrError(page.DataClass)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("page %q lists an unknown model", page.URLSegment), err)
	}
	return schema, nil
}

// listingQuery selects the model's stored fields and relation summary
// columns, restricted by the page filter and the submitted field filters
func (s *RegistryService) listingQuery(schema *models.ObjectMetadata, page *models.RegistryPage, state *QueryState) (*query.Builder, error) {
	b := query.From(schema.TableName).Select(schema.FieldNames())

	for _, sf := range schema.SummaryFields {
		if sf.IsComputed() || !sf.IsRelation() {
			continue
		}
		res, err := s.metadata.ResolvePath(schema, sf.Name)
		if err != nil {
			return nil, errors.NewInternalError("resolving summary field", err)
		}
		res.ApplyJoin(b)
		b.AddSelectRaw(res.Column, sf.Name)
	}

	for _, sf := range schema.SearchableFields {
		value := state.Filter(sf.Name)
		if value == "" {
			continue
		}
		res, err := s.metadata.ResolvePath(schema, sf.Name)
		if err != nil {
			return nil, errors.NewInternalError("resolving searchable field", err)
		}
		res.ApplyJoin(b)

		if sf.Filter == constants.FilterExact {
			b.Where(res.Column+" = ?", value)
		} else {
			b.Where(res.Column+" LIKE ? ESCAPE '!'", "%"+escapeLike(value)+"%")
		}
	}

	if err := s.applyPageFilter(b, schema, page); err != nil {
		return nil, err
	}
	return b, nil
}

// applyPageFilter ANDs the page's filter expression into b
func (s *RegistryService) applyPageFilter(b *query.Builder, schema *models.ObjectMetadata, page *models.RegistryPage) error {
	if page.FilterExpr == "" {
		return nil
	}
	where, args, err := expression.ToSQL(page.FilterExpr, func(name string) (string, error) {
		res, err := s.metadata.ResolvePath(schema, name)
		if err != nil {
			return "", err
		}
		res.ApplyJoin(b)
		return res.Column, nil
	})
	if err != nil {
		return errors.NewInternalError(fmt.Sprintf("filter expression of page %q", page.URLSegment), err)
	}
	b.WhereRaw(where, args)
	return nil
}

// escapeLike escapes LIKE wildcards for an ESCAPE '!' clause
func escapeLike(v string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(v)
}

// applySort orders by the effective sort column with ID as tie-breaker
func applySort(b *query.Builder, schema *models.ObjectMetadata, state *QueryState) {
	sortField, dir := state.SortOrder(schema)
	b.OrderBy(query.Column(schema.TableName, sortField), dir)
	if sortField != constants.FieldID {
		b.OrderBy(query.Column(schema.TableName, constants.FieldID), constants.SortASC)
	}
}

// Search returns one page of the filtered, sorted listing
func (s *RegistryService) Search(ctx context.Context, page *models.RegistryPage, params url.Values) (*models.SearchResult, error) {
	schema, err := s.schemaFor(page)
	if err != nil {
		return nil, err
	}
	state := ParseQueryState(schema, params)

	b, err := s.listingQuery(schema, page, state)
	if err != nil {
		return nil, err
	}

	total, err := s.records.Count(ctx, b)
	if err != nil {
		return nil, errors.NewInternalError("counting records", err)
	}

	pageLength := page.EffectivePageLength()
	applySort(b, schema, state)
	b.Limit(pageLength).Offset(state.Start)

	recs, err := s.records.Find(ctx, b)
	if err != nil {
		return nil, errors.NewInternalError("listing records", err)
	}

	formAction := page.Link(constants.FormRegistryFilter)
	result := &models.SearchResult{
		Page:        page,
		Columns:     s.columns(schema, state, formAction),
		Rows:        make([]models.Row, 0, len(recs)),
		Sort:        state.Sort,
		Dir:         state.Dir,
		QueryString: state.String(),
		ExportLink:  page.Link(constants.ActionExport) + "?" + state.String(),
		FormAction:  formAction,
	}

	for _, rec := range recs {
		result.Rows = append(result.Rows, s.row(schema, page, rec))
	}

	result.Pagination = models.NewPaginatedList(total, state.Start, pageLength, func(start int) string {
		return formAction + "?" + state.Encode(state.Sort, state.Dir, start)
	})

	for _, sf := range schema.SearchableFields {
		result.FilterValues = append(result.FilterValues, models.FilterValue{
			Name:    sf.Name,
			Label:   sf.Label,
			InputID: FilterInputID(sf.Name),
			Value:   state.Filter(sf.Name),
		})
	}

	s.log.Debug("registry search",
		zap.String("page", page.URLSegment),
		zap.Int64("total", total),
		zap.Int("start", state.Start),
		zap.String("sort", state.Sort),
		zap.String("dir", state.Dir))

	return result, nil
}

// FilterInputID is the DOM id of a filter form input
func FilterInputID(name string) string {
	return "Form_" + constants.FormRegistryFilter + "_" + strings.ReplaceAll(name, ".", "_")
}

// columns builds the table headers. Stored fields of a sortable type are
// sortable; relation and computed columns are not.
func (s *RegistryService) columns(schema *models.ObjectMetadata, state *QueryState, formAction string) []models.Column {
	effectiveSort, _ := state.SortOrder(schema)

	cols := make([]models.Column, 0, len(schema.SummaryFields))
	for _, sf := range schema.SummaryFields {
		col := models.Column{Name: sf.Name, Label: sf.Label}
		if !sf.IsComputed() && !sf.IsRelation() {
			if f := schema.GetField(sf.Name); f != nil && fieldtypes.GetRegistry().IsSortable(f.Type) {
				col.Sortable = true
				col.Sorted = f.APIName == effectiveSort
				col.Dir = state.HeaderDir(f.APIName)
				col.Link = formAction + "?" + state.Encode(f.APIName, col.Dir, -1)
			}
		}
		cols = append(cols, col)
	}
	return cols
}

// row renders the summary cells and display title of a record
func (s *RegistryService) row(schema *models.ObjectMetadata, page *models.RegistryPage, rec models.Record) models.Row {
	id := rec.ID()
	row := models.Row{
		ID:    id,
		Link:  page.Link(constants.ActionShow, strconv.FormatInt(id, 10)),
		Cells: make([]models.Cell, 0, len(schema.SummaryFields)),
	}

	for _, sf := range schema.SummaryFields {
		cell := models.Cell{Name: sf.Name, Value: s.summaryValue(schema, sf, rec)}
		if schema.UseLink {
			cell.Link = row.Link
		}
		row.Cells = append(row.Cells, cell)
	}
	row.Title = s.title(schema, rec, row.Cells)
	return row
}

func (s *RegistryService) summaryValue(schema *models.ObjectMetadata, sf models.SummaryField, rec models.Record) string {
	if !sf.IsComputed() {
		if f := schema.GetField(sf.Name); f != nil {
			return fieldtypes.GetRegistry().Format(f.Type, rec[f.APIName])
		}
		if res, err := s.metadata.ResolvePath(schema, sf.Name); err == nil {
			return fieldtypes.GetRegistry().Format(res.Type(), rec[sf.Name])
		}
		return rec.String(sf.Name)
	}

	v, err := s.engine.EvaluateString(sf.Expression, rec)
	if err != nil {
		s.log.Warn("computed column failed",
			zap.String("model", schema.APIName),
			zap.String("column", sf.Name),
			zap.Int64("id", rec.ID()),
			zap.Error(err))
		return ""
	}
	return v
}

// title is the record's display title: the title expression, else the
// first non-blank summary value, else "#<ID>"
func (s *RegistryService) title(schema *models.ObjectMetadata, rec models.Record, cells []models.Cell) string {
	if schema.TitleExpression != "" {
		v, err := s.engine.EvaluateString(schema.TitleExpression, rec)
		if err == nil && strings.TrimSpace(v) != "" {
			return v
		}
		if err != nil {
			s.log.Warn("title expression failed", zap.String("model", schema.APIName), zap.Error(err))
		}
	}
	for _, c := range cells {
		if strings.TrimSpace(c.Value) != "" {
			return c.Value
		}
	}
	return "#" + strconv.FormatInt(rec.ID(), 10)
}

// ExportFilename is the attachment name of a page's CSV export
func (s *RegistryService) ExportFilename(page *models.RegistryPage) string {
	return fmt.Sprintf("%s-%s-%s.csv", page.URLSegment, s.exportPrefix, s.now().Format(constants.ExportTimestampFmt))
}

// Export writes every record matching the request's filters, in the
// requested order, as CSV: a header of column labels, then one line per record.
// Nothing is written when the query fails.
func (s *RegistryService) Export(ctx context.Context, page *models.RegistryPage, params url.Values, w io.Writer) (int, error) {
	schema, err := s.schemaFor(page)
	if err != nil {
		return 0, err
	}
	state := ParseQueryState(schema, params)

	b, err := s.listingQuery(schema, page, state)
	if err != nil {
		return 0, err
	}
	applySort(b, schema, state)

	recs, err := s.records.Find(ctx, b)
	if err != nil {
		return 0, errors.NewInternalError("exporting records", err)
	}

	cw := csv.NewWriter(w)
	header := make([]string, 0, len(schema.SummaryFields))
	for _, sf := range schema.SummaryFields {
		header = append(header, sf.Label)
	}
	if err := cw.Write(header); err != nil {
		return 0, err
	}

	for _, rec := range recs {
		line := make([]string, 0, len(schema.SummaryFields))
		for _, sf := range schema.SummaryFields {
			line = append(line, s.summaryValue(schema, sf, rec))
		}
		if err := cw.Write(line); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	s.log.Info("registry export",
		zap.String("page", page.URLSegment),
		zap.Int("records", len(recs)))
	return len(recs), nil
}

// Show returns the detail view of one record of the page's model.
// Ids that are not positive integers, do not exist, or fall outside the
// page filter are not found.
func (s *RegistryService) Show(ctx context.Context, page *models.RegistryPage, rawID string) (*models.RecordDetail, error) {
	schema, err := s.schemaFor(page)
	if err != nil {
		return nil, err
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.NewNotFoundError(schema.Label, rawID)
	}

	b := query.From(schema.TableName).
		Select(schema.FieldNames()).
		Where(query.Column(schema.TableName, constants.FieldID)+" = ?", id)
	if err := s.applyPageFilter(b, schema, page); err != nil {
		return nil, err
	}

	rec, err := s.records.FindOne(ctx, b)
	if err != nil {
		return nil, errors.NewInternalError("loading record", err)
	}
	if rec == nil {
		return nil, errors.NewNotFoundError(schema.Label, rawID)
	}

	detail := &models.RecordDetail{
		Page:     page,
		ID:       id,
		BackLink: page.Link(),
	}
	var cells []models.Cell
	for _, f := range schema.Fields {
		value := fieldtypes.GetRegistry().Format(f.Type, rec[f.APIName])
		detail.Fields = append(detail.Fields, models.DetailField{Name: f.APIName, Label: f.Label, Value: value})
		cells = append(cells, models.Cell{Name: f.APIName, Value: value})
	}
	detail.Title = s.title(schema, rec, cells)
	return detail, nil
}
