package duel

import "fmt"

// Kind buckets errors by how the caller should treat them: validation and
// conflict are synchronous rejections with no state change, not-found is a
// lookup miss, external wraps a dependency failure after rollback.
type Kind int

const (
	KindValidation Kind = iota
	KindConflict
	KindNotFound
	KindExternal
)

// Error is a reason-coded failure. Codes are small enumerated strings fit
// for clients; raw storage errors never surface here.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func validationErr(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func conflictErr(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func notFoundErr(code, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func externalErr(err error, format string, args ...any) *Error {
	return &Error{Kind: KindExternal, Code: "internal", Message: fmt.Sprintf(format, args...), cause: err}
}

// Reason codes surfaced to clients.
const (
	CodeMatchNotFound  = "match_not_found"
	CodeRoomNotFound   = "room_not_found"
	CodeRoomFull       = "room_full"
	CodeSelfJoin       = "self_join"
	CodeNotParticipant = "not_participant"
	CodeWrongStatus    = "wrong_status"
	CodeUnknownChar    = "unknown_character"
	CodeInvalidMove    = "invalid_move"
	CodeMissingAuth    = "missing_authorization"
	CodeDuplicateMove  = "duplicate_move"
	CodeStakePending   = "stake_pending"
	CodeAlreadyStaked  = "already_staked"
	CodeInvalidStake   = "invalid_stake"
	CodeBadSignature   = "bad_signature"
	CodeDeadlinePassed = "deadline_passed"
)
