package newsapi

// APIResponse represents the news search API response structure.
type APIResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Content `json:"articles"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
}

type Content struct {
	Source      SourceRef `json:"source"`
	Author      *string   `json:"author"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	URL         string    `json:"url"`
	URLToImage  *string   `json:"urlToImage"`
	PublishedAt string    `json:"publishedAt"`
	Content     *string   `json:"content"`
}

type SourceRef struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}
