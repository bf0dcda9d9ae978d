package checkin

// Classify applies the check-in decision table to a computed distance and
// window timing. It is pure: either a Status for an accepted attempt or a
// Rejection, never both.
//
//	distance > allowed                  -> OUT_OF_RANGE
//	distance <= allowed, before window  -> NOT_IN_CHECKIN_WINDOW
//	distance <= allowed, within window  -> normal
//	distance <= allowed, after window   -> late (normal while within grace)
//
// The boundary is inclusive: distance == allowed is accepted.
func Classify(distance, allowed float64, timing Timing, lateMinutes, graceMinutes int) (Status, *Rejection) {
	if distance > allowed {
		return "", newOutOfRange(distance, allowed)
	}
	switch timing {
	case TimingBefore:
		return "", &Rejection{
			Code:    CodeNotInCheckinWindow,
			Message: "outside the check-in window",
		}
	case TimingAfter:
		if lateMinutes > graceMinutes {
			return StatusLate, nil
		}
	}
	return StatusNormal, nil
}
