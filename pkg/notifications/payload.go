package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Payload is the inbound webhook body. Every field except Text is optional.
type Payload struct {
	UUID      string   `json:"uuid" validate:"max=128"`
	Timestamp int64    `json:"timestamp" validate:"gte=0"`
	Text      string   `json:"text" validate:"required,max=10000"`
	Task      *TaskRef `json:"task"`
	UserID    string   `json:"userId" validate:"max=256,recipient"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func payloadValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("recipient", func(fl validator.FieldLevel) bool {
			return !ReservedRecipient(fl.Field().String())
		})
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// DecodePayload reads a JSON payload. Malformed JSON and wrongly typed
// fields are reported as ValidationError.
func DecodePayload(r io.Reader) (Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		verr := ValidationError{}
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr) && typeErr.Field != "":
			verr.Add(typeErr.Field, fmt.Sprintf("must be a %s", typeErr.Type.Kind()))
		case errors.Is(err, io.EOF):
			verr.Add("body", "is required")
		default:
			verr.Add("body", "must be a valid JSON object")
		}
		return Payload{}, verr
	}
	return p, nil
}

// Validate checks p against the payload rules.
func (p Payload) Validate() error {
	err := payloadValidator().Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fieldPath(fe.Namespace()), message(fe))
	}
	return verr
}

// fieldPath drops the struct name from "Payload.task.identifier".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "recipient":
		return fmt.Sprintf("%q is reserved", fe.Value())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// Normalize validates p and turns it into a Notification: uuid and
// timestamp are defaulted, read is false, and the target is global unless
// a recipient is given.
func (p Payload) Normalize(now time.Time) (Notification, error) {
	p.UserID = strings.TrimSpace(p.UserID)
	if err := p.Validate(); err != nil {
		return Notification{}, err
	}

	n := Notification{
		UUID:        p.UUID,
		Timestamp:   p.Timestamp,
		Text:        p.Text,
		Task:        p.Task,
		IsGlobal:    p.UserID == "",
		RecipientID: p.UserID,
	}
	if n.UUID == "" {
		n.UUID = uuid.NewString()
	}
	if n.Timestamp == 0 {
		n.Timestamp = now.UnixMilli()
	}
	return n, nil
}
