package task

// IsOwner reports whether the user owns the task.
func IsOwner(t *Task, userID int64) bool {
	return t != nil && t.OwnerID == userID
}

// HasAccess reports whether the user may view or update the task: the
// owner always can, collaborators can too.
func HasAccess(t *Task, userID int64) bool {
	if IsOwner(t, userID) {
		return true
	}
	if t == nil {
		return false
	}
	for _, id := range t.CollaboratorIDs {
		if id == userID {
			return true
		}
	}
	return false
}
