package remote

// Collection is a top-level remote container.
type Collection struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ContentNode is one ordered child of a collection: either a
// sub-collection or a document living directly under the collection.
type ContentNode struct {
	Type      string `json:"type"` // "subcollection" or "document"
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at"`
}

// Child node type values in CollectionDetail.Contents.
const (
	NodeSubCollection = "subcollection"
	NodeDocument      = "document"
)

// CollectionDetail is a collection with its ordered children.
type CollectionDetail struct {
	Collection
	Contents []ContentNode `json:"contents"`
}

// SubCollection is a mid-level remote container nested in a collection.
type SubCollection struct {
	ID           int64  `json:"id"`
	CollectionID int64  `json:"collection_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// SubCollectionDetail is a sub-collection with its ordered documents.
type SubCollectionDetail struct {
	SubCollection
	Documents []DocumentRef `json:"documents"`
}

// DocumentRef is a document summary as listed inside a container.
type DocumentRef struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at"`
}

// Document is a full leaf content unit. SubCollectionID is zero when
// the document lives directly under its collection. HTML is the
// server's native rich representation; Markdown is present when the
// server stores a markdown source.
type Document struct {
	ID              int64  `json:"id"`
	CollectionID    int64  `json:"collection_id"`
	SubCollectionID int64  `json:"subcollection_id,omitempty"`
	Name            string `json:"name"`
	HTML            string `json:"html"`
	Markdown        string `json:"markdown,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// CreateDocumentRequest creates a new document. SubCollectionID of zero
// places the document directly under the collection.
type CreateDocumentRequest struct {
	CollectionID    int64  `json:"collection_id"`
	SubCollectionID int64  `json:"subcollection_id,omitempty"`
	Name            string `json:"name"`
	Markdown        string `json:"markdown"`
}

// CreateSubCollectionRequest creates a new sub-collection.
type CreateSubCollectionRequest struct {
	CollectionID int64  `json:"collection_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
}

// UpdateDocumentRequest updates a document's body and, optionally, name.
type UpdateDocumentRequest struct {
	Markdown string `json:"markdown"`
	Name     string `json:"name,omitempty"`
}
