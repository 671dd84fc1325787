package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/game-leaderboard/internal/domain"
)

const maxBodyBytes = 1 << 20

// intField is a JSON integer. Integral floats such as 5.0 are accepted.
type intField struct {
	value int64
	set   bool
}

func (f *intField) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return errors.New("must be an integer")
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("must be an integer")
	}
	if v, err := n.Int64(); err == nil {
		f.value, f.set = v, true
		return nil
	}

	v, err := n.Float64()
	if err != nil || v != math.Trunc(v) || v >= math.MaxInt64 || v < math.MinInt64 {
		return errors.New("must be an integer")
	}
	f.value, f.set = int64(v), true
	return nil
}

// stringField is a JSON string
type stringField struct {
	value string
	set   bool
}

func (f *stringField) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &f.value); err != nil || string(data) == "null" {
		return errors.New("must be a string")
	}
	f.set = true
	return nil
}

type registerPlayerRequest struct {
	ID       intField    `json:"id"`
	Username stringField `json:"username"`
	Email    stringField `json:"email"`
}

func (r *registerPlayerRequest) validate() error {
	return missing(
		field{"id", r.ID.set},
		field{"username", r.Username.set},
		field{"email", r.Email.set},
	)
}

func (r *registerPlayerRequest) toPlayer() domain.Player {
	return domain.Player{
		ID:       r.ID.value,
		Username: r.Username.value,
		Email:    r.Email.value,
	}
}

type submitScoreRequest struct {
	PlayerID intField `json:"player_id"`
	Score    intField `json:"score"`
}

func (r *submitScoreRequest) validate() error {
	return missing(
		field{"player_id", r.PlayerID.set},
		field{"score", r.Score.set},
	)
}

func (r *submitScoreRequest) toSubmission() domain.ScoreSubmission {
	return domain.ScoreSubmission{
		PlayerID: r.PlayerID.value,
		Score:    r.Score.value,
	}
}

type field struct {
	name string
	set  bool
}

func missing(fields ...field) error {
	var names []string
	for _, f := range fields {
		if !f.set {
			names = append(names, f.name)
		}
	}
	if len(names) > 0 {
		return fmt.Errorf("field required: %s", strings.Join(names, ", "))
	}
	return nil
}

type validator interface {
	validate() error
}

// decodeBody decodes a JSON object into v and checks required fields.
// Unknown fields are ignored; anything after the object is rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, v validator) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%w: body must be a JSON object", domain.ErrInvalidRequest)
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", domain.ErrInvalidRequest)
	}
	if err := v.validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}
