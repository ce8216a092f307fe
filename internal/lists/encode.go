package lists

import (
	"fmt"
	"time"

	"github.com/BusselW/DDH3/internal/models"
)

func linkValue(v interface{}) (*models.DocumentLink, error) {
	switch link := v.(type) {
	case nil:
		return nil, nil
	case models.DocumentLink:
		return &link, nil
	case *models.DocumentLink:
		return link, nil
	default:
		return nil, fmt.Errorf("%w: expected a document link, got %T", models.ErrValidation, v)
	}
}

func timeValue(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.UTC().Format(time.RFC3339), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return t.UTC().Format(time.RFC3339), nil
	case string:
		return t, nil
	default:
		return nil, fmt.Errorf("%w: expected a timestamp, got %T", models.ErrValidation, v)
	}
}

func userIDs(v interface{}) ([]int, error) {
	switch ids := v.(type) {
	case nil:
		return []int{}, nil
	case int:
		return []int{ids}, nil
	case []int:
		return ids, nil
	default:
		return nil, fmt.Errorf("%w: expected user ids, got %T", models.ErrValidation, v)
	}
}

func userID(v interface{}) (interface{}, error) {
	switch id := v.(type) {
	case nil:
		return nil, nil
	case int:
		return id, nil
	case *int:
		if id == nil {
			return nil, nil
		}
		return *id, nil
	default:
		return nil, fmt.Errorf("%w: expected a user id, got %T", models.ErrValidation, v)
	}
}

func transportErr(op string, status int, body string, err error) error {
	return &models.TransportError{Op: op, StatusCode: status, Body: body, Err: err}
}
