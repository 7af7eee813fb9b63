package domain

import "errors"

var (
	// ErrDuplicateSession is returned when creating a session whose id is
	// already present in the registry.
	ErrDuplicateSession = errors.New("session already exists")

	// ErrUnknownSession is returned for operations on an absent session id.
	ErrUnknownSession = errors.New("session not found")

	// ErrSessionNotConnected is returned when a send is attempted on a
	// session that has not completed pairing.
	ErrSessionNotConnected = errors.New("session not connected")

	// ErrInvalidRecipient is returned when a recipient address does not
	// normalize to digits plus the canonical suffix.
	ErrInvalidRecipient = errors.New("invalid recipient format")

	// ErrInvalidBulkFormat is returned when a !bulk message body cannot be
	// split into recipients and a message.
	ErrInvalidBulkFormat = errors.New("invalid bulk message format")
)
