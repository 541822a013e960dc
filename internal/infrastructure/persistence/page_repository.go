package persistence

import (
	"context"
	"database/sql"

	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/query"
)

// PageRepository stores registry pages in the registry_pages table
type PageRepository struct {
	records *RecordRepository
}

// NewPageRepository creates a new PageRepository
func NewPageRepository(records *RecordRepository) *PageRepository {
	return &PageRepository{records: records}
}

func (r *PageRepository) selectPages() *query.Builder {
	return query.From(constants.TableRegistryPages).Select([]string{"*"})
}

// FindBySegment returns the page with the given URL segment; nil when absent
func (r *PageRepository) FindBySegment(ctx context.Context, segment string) (*models.RegistryPage, error) {
	rec, err := r.records.FindOne(ctx, r.selectPages().
		Where(query.Column(constants.TableRegistryPages, constants.FieldURLSegment)+" = ?", segment))
	if err != nil || rec == nil {
		return nil, err
	}
	return models.PageFromRecord(rec), nil
}

// FindByID returns the page with the given ID; nil when absent
func (r *PageRepository) FindByID(ctx context.Context, id int64) (*models.RegistryPage, error) {
	rec, err := r.records.FindByID(ctx, constants.TableRegistryPages, id)
	if err != nil || rec == nil {
		return nil, err
	}
	return models.PageFromRecord(rec), nil
}

// FindAll returns every page ordered by title
func (r *PageRepository) FindAll(ctx context.Context) ([]*models.RegistryPage, error) {
	recs, err := r.records.Find(ctx, r.selectPages().
		OrderBy(constants.FieldTitle, constants.SortASC).
		OrderBy(constants.FieldID, constants.SortASC))
	if err != nil {
		return nil, err
	}

	pages := make([]*models.RegistryPage, 0, len(recs))
	for _, rec := range recs {
		pages = append(pages, models.PageFromRecord(rec))
	}
	return pages, nil
}

// Insert stores a new page and sets its ID
func (r *PageRepository) Insert(ctx context.Context, tx *sql.Tx, page *models.RegistryPage) error {
	id, err := r.records.Insert(ctx, tx, constants.TableRegistryPages, page.ToRecord())
	if err != nil {
		return err
	}
	page.ID = id
	return nil
}

// Update stores every column of an existing page
func (r *PageRepository) Update(ctx context.Context, tx *sql.Tx, page *models.RegistryPage) error {
	return r.records.Update(ctx, tx, constants.TableRegistryPages, page.ID, page.ToRecord())
}

// Delete removes a page
func (r *PageRepository) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	return r.records.Delete(ctx, tx, constants.TableRegistryPages, id)
}
