// Package access holds the ownership rule shared by interactive flows: only
// the member who opened a prompt or session may act on it.
package access

import "errors"

var ErrUnauthorized = errors.New("not the author of this command")

func RequireOwner(ownerID, actorID string) error {
	if ownerID == "" || ownerID != actorID {
		return ErrUnauthorized
	}
	return nil
}
