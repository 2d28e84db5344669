package store

// Table and blob names.
const (
	TableUsers       = "users"
	TablePosts       = "posts"
	TableTravelMates = "travel_mates"
	TableComments    = "comments"

	likesBlob = "user_likes.json"
)

// Schema describes a table's persisted columns and its id column.
type Schema struct {
	Name     string
	IDColumn string
	Columns  []string
}

// Blob is the backend object name holding the table.
func (s Schema) Blob() string { return s.Name + ".csv" }

// DefaultSchemas lists every table of the community store.
func DefaultSchemas() []Schema {
	return []Schema{
		{
			Name:     TableUsers,
			IDColumn: "user_id",
			Columns:  []string{"user_id", "username", "password_sha256", "email", "country", "city_in_korea", "joined_at"},
		},
		{
			Name:     TablePosts,
			IDColumn: "post_id",
			Columns:  []string{"post_id", "user_id", "content", "tags", "created_at", "likes", "reposts"},
		},
		{
			Name:     TableTravelMates,
			IDColumn: "mate_id",
			Columns: []string{"mate_id", "user_id", "title", "departure_city", "destination_city", "date_from", "date_to",
				"budget_range_krw", "preferred_transport", "contact", "notes", "status", "created_at",
				"max_people", "current_people", "participants"},
		},
		{
			Name:     TableComments,
			IDColumn: "comment_id",
			Columns:  []string{"comment_id", "post_id", "user_id", "content", "created_at"},
		},
	}
}
