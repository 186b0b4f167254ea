package errors

const (
	UsernameExist      = "Username already taken"
	EmailExist         = "Email already in use"
	UsernameEmpty      = "Username cannot be empty"
	InvalidCredentials = "Invalid username or password"
	NotLoggedIn        = "You must be logged in!"
	PermissionDenied   = "You don't have permission!"

	ListingNotFound = "Listing does not exist!"
	ReviewNotFound  = "Review does not exist!"
	UserNotFound    = "User does not exist!"

	SelectBothDates  = "Please select both check-in and check-out dates"
	CheckOutNotAfter = "Check-out date must be after check-in date"
	CheckInInPast    = "Check-in date cannot be in the past"

	SomethingWrong = "Something went wrong"
)

// ValidationError carries the combined, user-correctable messages for every
// field that failed a write-time constraint.
type ValidationError struct {
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError means a referenced entity does not resolve. Handlers render
// it as a redirect to a safe fallback view.
type NotFoundError struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// PermissionError means the authenticated identity is not the owner/author
// of the target entity. The gated mutation never executes.
type PermissionError struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

func (e *PermissionError) Error() string {
	return e.Message
}
