package movies

import "errors"

// ErrNotFound is returned by repositories when no record matches the id.
var ErrNotFound = errors.New("movie not found")

// ErrInvalidID is returned by ParseID for ids no store can hold.
var ErrInvalidID = errors.New("invalid movie id")
