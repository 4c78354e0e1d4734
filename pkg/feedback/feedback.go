// Package feedback validates and submits exercise ratings and newsletter
// subscriptions. Invalid input is rejected locally without a network call.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Sternrassler/your-energy-client/pkg/client"
)

// Validation messages.
const (
	MsgSelectRating = "Please select a rating"
	MsgEnterEmail   = "Please enter your email"
	MsgInvalidEmail = "Please enter a valid email address"
	MsgEnterComment = "Please enter your comment"
)

// Fallback messages for failed submissions without a server message.
const (
	MsgRatingFailed    = "Failed to submit rating. Please try again."
	MsgSubscribeFailed = "Failed to subscribe"
)

// emailPattern is the address format the catalog API accepts.
var emailPattern = regexp.MustCompile(`^\w+(\.\w+)?@[a-zA-Z_]+?\.[a-zA-Z]{2,3}$`)

// API is the subset of the catalog client used here.
type API interface {
	RateExercise(ctx context.Context, id string, rating client.RatingRequest) (*client.Exercise, error)
	Subscribe(ctx context.Context, email string) (*client.SubscriptionResponse, error)
}

// FieldError is a validation failure of one form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invalid field.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// Message returns the message for field, empty when the field is valid.
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// ValidateEmail returns the validation message for email, empty if valid.
func ValidateEmail(email string) string {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return MsgEnterEmail
	case !emailPattern.MatchString(email):
		return MsgInvalidEmail
	default:
		return ""
	}
}

// Rating is a submitted review of one exercise.
type Rating struct {
	ExerciseID string
	Rate       int
	Email      string
	Review     string
}

// Validate checks every field and returns a *ValidationError.
func (r Rating) Validate() error {
	var fields []FieldError
	if r.Rate < 1 || r.Rate > 5 {
		fields = append(fields, FieldError{Field: "rate", Message: MsgSelectRating})
	}
	if msg := ValidateEmail(r.Email); msg != "" {
		fields = append(fields, FieldError{Field: "email", Message: msg})
	}
	if strings.TrimSpace(r.Review) == "" {
		fields = append(fields, FieldError{Field: "review", Message: MsgEnterComment})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// RatingResult is a successful submission.
type RatingResult struct {
	Exercise *client.Exercise
	// Message is the thank-you notification text.
	Message string
}

// SubmitRating validates r and sends it.
func SubmitRating(ctx context.Context, api API, r Rating) (*RatingResult, error) {
	if strings.TrimSpace(r.ExerciseID) == "" {
		return nil, fmt.Errorf("exercise id is required")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	exercise, err := api.RateExercise(ctx, r.ExerciseID, client.RatingRequest{
		Rate:   r.Rate,
		Email:  strings.TrimSpace(r.Email),
		Review: strings.TrimSpace(r.Review),
	})
	if err != nil {
		return nil, err
	}

	name := exercise.Name
	if name == "" {
		name = "the exercise"
	}
	return &RatingResult{
		Exercise: exercise,
		Message:  fmt.Sprintf("Thank you, your review for exercise %s has been submitted", name),
	}, nil
}

// Subscribe validates email and subscribes it to the newsletter.
func Subscribe(ctx context.Context, api API, email string) (*client.SubscriptionResponse, error) {
	if msg := ValidateEmail(email); msg != "" {
		return nil, &ValidationError{Fields: []FieldError{{Field: "email", Message: msg}}}
	}
	return api.Subscribe(ctx, strings.TrimSpace(email))
}

// ErrorMessage is the user-facing text of a failed submission: the server's
// message when there is one, fallback otherwise.
func ErrorMessage(err error, fallback string) string {
	var validation *ValidationError
	if errors.As(err, &validation) && len(validation.Fields) > 0 {
		return validation.Fields[0].Message
	}
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) && httpErr.ErrorClass != client.ErrorClassNetwork && httpErr.Message != "" && httpErr.Message != "Request failed" {
		return httpErr.Message
	}
	return fallback
}
