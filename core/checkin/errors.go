package checkin

import (
	"errors"
	"fmt"
)

// Machine-readable rejection codes consumed by the SPA and the miniprogram;
// these are part of the wire contract and must stay stable.
const (
	CodeOutOfRange            = "OUT_OF_RANGE"
	CodeNotInCheckinWindow    = "NOT_IN_CHECKIN_WINDOW"
	CodeAlreadyCheckedIn      = "ALREADY_CHECKED_IN"
	CodeInvalidCoordinates    = "INVALID_COORDINATES"
	CodePositionNotFound      = "POSITION_NOT_FOUND"
	CodeNoApprovedApplication = "NO_APPROVED_APPLICATION"
)

// ErrAlreadyCheckedIn is returned by Repository.CreateRecord when the
// (student, day) uniqueness constraint rejects the insert. The service maps
// it to a Rejection; it is exported so repositories can produce it.
var ErrAlreadyCheckedIn = errors.New("already checked in today")

// Rejection is a typed, non-exceptional refusal of a check-in attempt. It is
// a value, not a fault: the engine returns exactly one Rejection or one
// Record per attempt, and the HTTP layer maps Rejections to 4xx responses.
type Rejection struct {
	Code    string                 `json:"error_code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"data,omitempty"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("checkin rejected (%s): %s", r.Code, r.Message)
}

// AsRejection unwraps err into a *Rejection if it is one.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func newOutOfRange(distance, allowed float64) *Rejection {
	return &Rejection{
		Code:    CodeOutOfRange,
		Message: fmt.Sprintf("out of check-in range: %.0fm away, %.0fm allowed", distance, allowed),
		Context: map[string]interface{}{"distance": distance, "allowed": allowed},
	}
}

func newAlreadyCheckedIn() *Rejection {
	return &Rejection{
		Code:    CodeAlreadyCheckedIn,
		Message: "already checked in today",
	}
}

func newInvalidCoordinates() *Rejection {
	return &Rejection{
		Code:    CodeInvalidCoordinates,
		Message: "latitude must be within [-90, 90] and longitude within [-180, 180]",
	}
}

func newPositionNotFound() *Rejection {
	return &Rejection{
		Code:    CodePositionNotFound,
		Message: "position not found",
	}
}

func newNoApprovedApplication() *Rejection {
	return &Rejection{
		Code:    CodeNoApprovedApplication,
		Message: "no approved application for this position",
	}
}
