package errs

import "net/http"

// errorMap holds the CustomError template for every application error code.
// The messages of the 2xxx codes are shown verbatim by the chess client.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrInvalidJSONFormat: {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room and Game Errors
	ErrRoomNotFound:          {Code: ErrRoomNotFound, Message: "Room does not exist", Status: http.StatusNotFound},
	ErrRoomIsFull:            {Code: ErrRoomIsFull, Message: "Room is full", Status: http.StatusConflict},
	ErrAlreadyInRoom:         {Code: ErrAlreadyInRoom, Message: "Already in this room", Status: http.StatusConflict},
	ErrInvalidMove:           {Code: ErrInvalidMove, Message: "Invalid move"},
	ErrOpponentDisconnected:  {Code: ErrOpponentDisconnected, Message: "Opponent disconnected"},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long"},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
