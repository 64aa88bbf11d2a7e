package submit

import "errors"

// ErrSubmitRejected indicates that the endpoint rejected the submission.
var ErrSubmitRejected = errors.New("submission rejected")
