package storage

// Sentiment labels stored with feedback.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
	SentimentUnknown  = "unknown"
)

// UserGroup is a user's saved group preference.
type UserGroup struct {
	UserID    string `json:"user_id"`
	Group     string `json:"group"`
	UpdatedAt int64  `json:"updated_at"`
}

// Feedback is a free-text message left by a user.
type Feedback struct {
	ID        int64  `json:"id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	Sentiment string `json:"sentiment"`
	Provider  string `json:"provider,omitempty"` // classifier that produced Sentiment
	CreatedAt int64  `json:"created_at"`
}
