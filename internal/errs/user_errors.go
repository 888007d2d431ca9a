package errs

import "errors"

// Sentinels for failures caused by what the user typed. They are never
// reported to the operator.
var (
	ErrUnknownDay       = errors.New("unknown day")
	ErrSunday           = errors.New("sunday is buy day")
	ErrUnknownPeriod    = errors.New("unknown period")
	ErrNonPositivePrice = errors.New("non-positive price")
	ErrInvalidBuy       = errors.New("invalid buy")
	ErrProposalPending  = errors.New("proposal already pending")
	ErrUnknownUser      = errors.New("unknown user")
	ErrUsage            = errors.New("bad command usage")
	ErrTooLarge         = errors.New("amount too large")
)

// ErrStorage marks failures of the record store or the archive log.
var ErrStorage = errors.New("storage failure")

// UserError is a recoverable input failure. Msg is shown to the user as is.
type UserError struct {
	Kind error
	Msg  string
}

func (e *UserError) Error() string { return e.Kind.Error() + ": " + e.Msg }

func (e *UserError) Unwrap() error { return e.Kind }

func NewUserError(kind error, msg string) error {
	return &UserError{Kind: kind, Msg: msg}
}

// UserMessage returns the user-facing text if err is a UserError.
func UserMessage(err error) (string, bool) {
	var ue *UserError
	if As(err, &ue) {
		return ue.Msg, true
	}
	return "", false
}
