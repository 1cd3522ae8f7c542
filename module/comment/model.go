package comment

// Comment threads anchor to a cell of a document. The authoritative
// copy lives with the storage collaborator; in-memory instances exist
// only for the duration of a request.
type Comment struct {
	ID         string  `json:"id" bson:"_id"`
	DocID      string  `json:"docId" bson:"doc_id"`
	Row        int     `json:"row" bson:"row"`
	Col        int     `json:"col" bson:"col"`
	Content    string  `json:"content" bson:"content"`
	AuthorID   string  `json:"authorId" bson:"author_id"`
	AuthorName string  `json:"authorName" bson:"author_name"`
	CreatedAt  int64   `json:"createdAt" bson:"created_at"`
	Resolved   bool    `json:"resolved" bson:"resolved"`
	Replies    []Reply `json:"replies" bson:"replies"`
}

type Reply struct {
	ID         string `json:"id" bson:"id"`
	Content    string `json:"content" bson:"content"`
	AuthorID   string `json:"authorId" bson:"author_id"`
	AuthorName string `json:"authorName" bson:"author_name"`
	CreatedAt  int64  `json:"createdAt" bson:"created_at"`
}
