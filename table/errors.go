package table

// Kind classifies a rejected action.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindPrecondition Kind = "precondition"
	KindNotFound     Kind = "not_found"
)

// Error is returned by every rejected table operation. The table is left
// untouched whenever an Error is returned.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches on kind, and on message too when the target carries one, so
// both errors.Is(err, ErrPrecondition) and errors.Is(err, ErrNotYourTurn) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

func validation(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }
func precondition(msg string) *Error { return &Error{Kind: KindPrecondition, Message: msg} }
func notFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }

var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrPrecondition = &Error{Kind: KindPrecondition}
	ErrNotFound     = &Error{Kind: KindNotFound}
)

var (
	ErrMissingIdentity = validation("Table ID and name required.")
	ErrInvalidWinner   = validation("Invalid winner seat.")
	ErrMalformed       = validation("Malformed message.")
	ErrMalformedNumber = validation("Malformed numeric field.")
	ErrUnknownAction   = validation("Unknown action.")
	ErrBetTooLarge     = validation("Bet exceeds the table limit.")

	ErrTableExists     = precondition("Table already exists.")
	ErrTableFull       = precondition("Table is full (10).")
	ErrAlreadySeated   = precondition("Already seated. Leave first.")
	ErrSeatMissing     = precondition("Seat missing.")
	ErrSeatOwnership   = precondition("Seat ownership mismatch.")
	ErrHandActive      = precondition("Hand is active. (Finish hand first)")
	ErrNotHostStart    = precondition("Only host can start.")
	ErrHandAlready     = precondition("Hand already active.")
	ErrTooFewPlayers   = precondition("At least 2 players required.")
	ErrNotAllReady     = precondition("All players must be Ready.")
	ErrNoActiveHand    = precondition("No active hand.")
	ErrNotYourTurn     = precondition("Not your turn.")
	ErrFolded          = precondition("You are folded.")
	ErrAlreadyFolded   = precondition("Already folded.")
	ErrRaiseTooSmall   = precondition("Raise must be greater than current bet.")
	ErrInvalidRaise    = precondition("Invalid raise state.")
	ErrNotHostWinner   = precondition("Only HOST can declare winner.")
	ErrWinnerEmpty     = precondition("Winner seat is empty.")
	ErrWinnerFolded    = precondition("Winner is folded.")

	ErrTableNotFound = notFound("Table not found.")
	ErrNotInTable    = notFound("Not in a table.")
)
