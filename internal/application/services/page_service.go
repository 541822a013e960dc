package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/internal/infrastructure/cache"
	"github.com/nexuscrm/registry/internal/infrastructure/persistence"
	"github.com/nexuscrm/registry/pkg/errors"
	"github.com/nexuscrm/registry/pkg/expression"
)

var urlSegmentPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// reservedSegments collide with fixed routes
var reservedSegments = map[string]bool{
	"api":     true,
	"health":  true,
	"metrics": true,
	"static":  true,
}

// PageService resolves and manages registry pages. Lookups by URL segment
// are cached and invalidated on every write.
type PageService struct {
	repo     *persistence.PageRepository
	metadata *MetadataService
	cache    *cache.Store[*models.RegistryPage]
	log      *zap.Logger
}

// NewPageService creates a PageService
func NewPageService(repo *persistence.PageRepository, metadata *MetadataService, pageCache *cache.Store[*models.RegistryPage], log *zap.Logger) *PageService {
	return &PageService{
		repo:     repo,
		metadata: metadata,
		cache:    pageCache,
		log:      log,
	}
}

// GetBySegment returns the page at a URL segment or a NotFoundError
func (ps *PageService) GetBySegment(ctx context.Context, segment string) (*models.RegistryPage, error) {
	if page, ok := ps.cache.Get(segment); ok {
		return page, nil
	}

	page, err := ps.repo.FindBySegment(ctx, segment)
	if err != nil {
		return nil, errors.NewInternalError("loading page", err)
	}
	if page == nil {
		return nil, errors.NewNotFoundError("Page", segment)
	}

	ps.cache.Set(segment, page)
	return page, nil
}

// List returns every page ordered by title
func (ps *PageService) List(ctx context.Context) ([]*models.RegistryPage, error) {
	pages, err := ps.repo.FindAll(ctx)
	if err != nil {
		return nil, errors.NewInternalError("listing pages", err)
	}
	return pages, nil
}

// Create validates and stores a new page
func (ps *PageService) Create(ctx context.Context, page *models.RegistryPage) error {
	if err := ps.validate(page); err != nil {
		return err
	}

	existing, err := ps.repo.FindBySegment(ctx, page.URLSegment)
	if err != nil {
		return errors.NewInternalError("checking page segment", err)
	}
	if existing != nil {
		return errors.NewConflictError("Page", "url_segment", page.URLSegment)
	}

	if err := ps.repo.Insert(ctx, nil, page); err != nil {
		return writeError("creating page", page, err)
	}
	ps.cache.Delete(page.URLSegment)

	ps.log.Info("page created", zap.String("segment", page.URLSegment), zap.String("model", page.DataClass))
	return nil
}

// Update validates and stores changes to an existing page
func (ps *PageService) Update(ctx context.Context, page *models.RegistryPage) error {
	current, err := ps.repo.FindByID(ctx, page.ID)
	if err != nil {
		return errors.NewInternalError("loading page", err)
	}
	if current == nil {
		return errors.NewNotFoundError("Page", fmt.Sprint(page.ID))
	}
	if err := ps.validate(page); err != nil {
		return err
	}

	if page.URLSegment != current.URLSegment {
		clash, err := ps.repo.FindBySegment(ctx, page.URLSegment)
		if err != nil {
			return errors.NewInternalError("checking page segment", err)
		}
		if clash != nil {
			return errors.NewConflictError("Page", "url_segment", page.URLSegment)
		}
	}

	if err := ps.repo.Update(ctx, nil, page); err != nil {
		return writeError("updating page", page, err)
	}
	ps.cache.Delete(current.URLSegment, page.URLSegment)
	return nil
}

// Delete removes a page
func (ps *PageService) Delete(ctx context.Context, id int64) error {
	current, err := ps.repo.FindByID(ctx, id)
	if err != nil {
		return errors.NewInternalError("loading page", err)
	}
	if current == nil {
		return errors.NewNotFoundError("Page", fmt.Sprint(id))
	}
	if err := ps.repo.Delete(ctx, nil, id); err != nil {
		return errors.NewInternalError("deleting page", err)
	}
	ps.cache.Delete(current.URLSegment)
	return nil
}

// writeError maps a segment taken by a concurrent write to a conflict
func writeError(action string, page *models.RegistryPage, err error) error {
	if persistence.IsUniqueViolation(err) {
		return errors.NewConflictError("Page", "url_segment", page.URLSegment)
	}
	return errors.NewInternalError(action, err)
}

func (ps *PageService) validate(page *models.RegistryPage) error {
	page.Title = strings.TrimSpace(page.Title)
	page.URLSegment = strings.TrimSpace(page.URLSegment)

	if page.Title == "" {
		return errors.NewValidationError("title", "title is required")
	}
	if !urlSegmentPattern.MatchString(page.URLSegment) {
		return errors.NewValidationError("url_segment", "use lower-case letters, digits and hyphens")
	}
	if reservedSegments[page.URLSegment] {
		return errors.NewValidationError("url_segment", fmt.Sprintf("%q is reserved", page.URLSegment))
	}
	if page.PageLength < 0 {
		return errors.NewValidationError("page_length", "must not be negative")
	}

	schema := ps.metadata.GetSchema(page.DataClass)
	if schema == nil {
		return errors.NewValidationError("data_class", fmt.Sprintf("unknown model %q", page.DataClass))
	}
	page.DataClass = schema.APIName

	if page.FilterExpr != "" {
		_, _, err := expression.ToSQL(page.FilterExpr, func(name string) (string, error) {
			res, err := ps.metadata.ResolvePath(schema, name)
			if err != nil {
				return "", err
			}
			return res.Column, nil
		})
		if err != nil {
			return errors.NewValidationError("filter_expr", err.Error())
		}
	}
	return nil
}
