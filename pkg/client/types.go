package client

// Quote is the quote of the day.
type Quote struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

// Filter is a category card: one muscle group, body part or piece of equipment.
type Filter struct {
	Name   string `json:"name"`
	Filter string `json:"filter"`
	ImgURL string `json:"imgURL"`
}

// Exercise is a catalog exercise. Fields missing from the server response
// keep their zero values.
type Exercise struct {
	ID             string  `json:"_id"`
	Name           string  `json:"name"`
	Target         string  `json:"target"`
	BodyPart       string  `json:"bodyPart"`
	Equipment      string  `json:"equipment"`
	GifURL         string  `json:"gifUrl"`
	Rating         float64 `json:"rating"`
	BurnedCalories int     `json:"burnedCalories"`
	Time           int     `json:"time"`
	Popularity     int     `json:"popularity"`
	Description    string  `json:"description"`
}

// Page is a list endpoint response.
type Page[T any] struct {
	TotalPages int `json:"totalPages"`
	Results    []T `json:"results"`
}

// FilterPage is a page of categories.
type FilterPage = Page[Filter]

// ExercisePage is a page of exercises.
type ExercisePage = Page[Exercise]

// RatingRequest is the PATCH /exercises/{id}/rating payload.
type RatingRequest struct {
	Rate   int    `json:"rate"`
	Email  string `json:"email"`
	Review string `json:"review"`
}

// SubscriptionResponse is the POST /subscription response.
type SubscriptionResponse struct {
	Message string `json:"message"`
}
