package storage

import "errors"

var ErrItemNotFound = errors.New("item not found in storage")
var ErrItemAlreadyExists = errors.New("item with the same key already exists")
var ErrVoteAlreadyExists = errors.New("vote already exists for this voter, election and post")
