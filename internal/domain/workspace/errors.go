package workspace

import "errors"

var ErrWorkspaceNotFound = errors.New("workspace not found")
