package models

// Question is a study item a user can add to their queues
type Question struct {
	ID        string  `json:"id" db:"id"`
	AuthorID  string  `json:"author_id" db:"author_id"`
	Title     string  `json:"title" db:"title"`
	Text      string  `json:"text" db:"text"`
	Link      *string `json:"link,omitempty" db:"link"`
	LinkLogo  *string `json:"link_logo,omitempty" db:"link_logo"`
	CreatedAt string  `json:"created_at" db:"created_at"`
	UpdatedAt string  `json:"updated_at" db:"updated_at"`
}
