// Package services provides the application layer of the registry.
//
//   - Model metadata loaded from YAML (MetadataService)
//   - Registry page definitions with caching (PageService)
//   - Filtering, sorting, paging and CSV export of records (RegistryService)
//   - Fixture and CSV loading (FixtureService, ImportService)
//
// ServiceManager wires the services over a single database connection.
package services
