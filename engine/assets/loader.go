package assets

// Loader turns a file into an in-memory asset. The concrete type depends on the loader.
type Loader interface {
	Load(path string) (interface{}, error)
}
