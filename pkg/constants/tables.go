package constants

// Built-in storage. Registry pages are exposed as a model so records can
// relate to the page that lists them.
const (
	TableRegistryPages = "registry_pages"
	ModelRegistryPage  = "RegistryPage"
)
