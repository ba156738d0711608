/*
Package errs provides custom error types and application-level error code constants.

These codes identify business and system errors both inside the server and in the
payloads sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request or event parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates a malformed JSON body or websocket frame.
	ErrInvalidJSONFormat = 1003

	// ErrRateLimitExceeded indicates that the request or event rate exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Room and Game Errors
const (
	// ErrRoomNotFound indicates a spectator join (or lookup) against a room code with no room.
	ErrRoomNotFound = 2103

	// ErrRoomIsFull indicates a play-mode join to a room that already seats two players.
	ErrRoomIsFull = 2104

	// ErrAlreadyInRoom indicates a join from a connection that is already a member of that room.
	ErrAlreadyInRoom = 2105

	// ErrInvalidMove indicates that the rules engine rejected a submitted move.
	ErrInvalidMove = 2301

	// ErrOpponentDisconnected is the notice sent to a room when a seated player leaves.
	ErrOpponentDisconnected = 2302

	// ErrMessageContentTooLong indicates that a chat message exceeded the maximum length.
	ErrMessageContentTooLong = 2201
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000
)
