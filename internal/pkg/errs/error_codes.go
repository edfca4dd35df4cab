/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Messaging and Group Business Logic Errors
const (
	// ErrEmptyMessage indicates that a message carried neither text nor an attachment.
	ErrEmptyMessage = 2101

	// ErrMessageContentTooLong indicates that the message text exceeded the maximum length limit.
	ErrMessageContentTooLong = 2102

	// ErrReceiverNotFound indicates that the message receiver does not exist.
	ErrReceiverNotFound = 2103

	// ErrAttachmentInvalid indicates that the attachment payload was missing or malformed.
	ErrAttachmentInvalid = 2201

	// ErrGroupFieldsRequired indicates a group request was missing its name or member list.
	ErrGroupFieldsRequired = 2301

	// ErrGroupNotFound indicates that the referenced group does not exist.
	ErrGroupNotFound = 2302

	// ErrGroupMemberConflict indicates that one or more candidate members already belong to a group.
	ErrGroupMemberConflict = 2303
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates the request carried no valid session credential.
	ErrUnauthorized = 3001

	// ErrInvalidCredentials indicates that the supplied email/password pair did not match.
	ErrInvalidCredentials = 3002

	// ErrUserAlreadyExists indicates that the email is already registered.
	ErrUserAlreadyExists = 3003

	// ErrUserNotFound indicates that the referenced user account does not exist.
	ErrUserNotFound = 3004

	// ErrInvalidPassword indicates that the supplied password failed validation rules.
	ErrInvalidPassword = 3005

	// ErrSignupFieldsRequired indicates that a signup request was missing required fields.
	ErrSignupFieldsRequired = 3006

	// ErrAdminLoginRefused indicates an admin account attempted to use the user login.
	ErrAdminLoginRefused = 3007
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates that the attachment blob store rejected a write.
	ErrFileStorageFailed = 5001
)
