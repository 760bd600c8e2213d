package attachment

import "errors"

var (
	// ErrAttachmentNotFound signals that no attachment row matched.
	ErrAttachmentNotFound = errors.New("attachment not found")
	// ErrStoragePathExists signals a second row pointing at the same blob.
	ErrStoragePathExists = errors.New("storage path already referenced")
	// ErrReferenceNotFound signals a foreign key pointing at a missing user, task or project.
	ErrReferenceNotFound = errors.New("referenced entity not found")
)
