package port

// Chunker splits raw document text into searchable passages.
type Chunker interface {
	Split(text string) ([]string, error)
}
